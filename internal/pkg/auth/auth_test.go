package auth

import (
	"testing"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "mulearn",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: "4f1c2a8e-0000-4000-8000-000000000001", MUID: "asha-k@mulearn"}

	pair, err := svc.GenerateTokenPair(user, []string{models.RoleStudent})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, 86400, pair.RefreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.MUID, claims.MUID)
	assert.Equal(t, user.ID, claims.Subject)
	assert.True(t, claims.HasRole(models.RoleStudent))
	assert.False(t, claims.HasRole(models.RoleAdmins, models.RoleAppraiser))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	pair, err := svc.GenerateTokenPair(&models.User{ID: "u1", MUID: "u1@mulearn"}, nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	pair, err := newTestService().GenerateTokenPair(&models.User{ID: "u1", MUID: "u1@mulearn"}, nil)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "mulearn"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	pair, err := newTestService().GenerateTokenPair(&models.User{ID: "u1", MUID: "u1@mulearn"}, nil)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "someone-else"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAndExtractClaims_Empty(t *testing.T) {
	_, err := newTestService().ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer abc.def", want: "abc.def"},
		{header: "", wantErr: true},
		{header: "abc.def", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer   ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFormat, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
