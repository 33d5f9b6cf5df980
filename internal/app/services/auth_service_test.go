package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) (*authServiceImpl, *testRepos, *fakeTransactor, *MockEventPublisher) {
	t.Helper()
	repos := newTestRepos()
	tx := &fakeTransactor{repos: repos.repositories()}
	pub := new(MockEventPublisher)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "mulearn-test",
	})
	svc := NewAuthService(repos.repositories(), tx, jwtService, pub, zerolog.Nop()).(*authServiceImpl)
	return svc, repos, tx, pub
}

func TestMUIDBase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Jane Doe", "jane-doe"},
		{"extra spaces", "  Jane   Doe ", "jane-doe"},
		{"punctuation dropped", "O'Brien, Pat", "obrien-pat"},
		{"separators collapse", "ann_marie.k-s", "ann-marie-k-s"},
		{"digits kept", "Agent 47", "agent-47"},
		{"unicode letters", "Ânjali Dévi", "ânjali-dévi"},
		{"nothing usable", "!!!", "learner"},
		{"empty", "", "learner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MUIDBase(tt.in))
		})
	}
}

func TestMUIDBase_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "ab "
	}
	got := MUIDBase(long)
	assert.LessOrEqual(t, len([]rune(got)), maxMUIDBaseLen)
	assert.NotEqual(t, '-', rune(got[len(got)-1]))
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, repos, tx, pub := newTestAuthService(t)
	ctx := context.Background()
	orgID := "org-1"

	repos.users.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)
	repos.organizations.On("GetByID", mock.Anything, orgID).Return(&models.Organization{ID: orgID}, nil)
	repos.users.On("MUIDExists", mock.Anything, "jane-doe@mulearn").Return(true, nil)
	repos.users.On("MUIDExists", mock.Anything, "jane-doe-1@mulearn").Return(false, nil)
	repos.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = "user-1"
		}).Return(nil)
	repos.wallets.On("Create", mock.Anything, "user-1").Return(nil)
	repos.users.On("AssignRole", mock.Anything, "user-1", models.RoleStudent).Return(nil)
	repos.users.On("LinkOrganization", mock.Anything, "user-1", orgID).Return(nil)
	repos.tokens.On("Create", mock.Anything, mock.AnythingOfType("string"), "user-1", mock.AnythingOfType("time.Time")).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		FullName: "Jane Doe",
		Email:    " Jane@Example.com ",
		Password: "password123",
		Mobile:   "9876543210",
		OrgID:    &orgID,
	})

	require.NoError(t, err)
	assert.Equal(t, "jane-doe-1@mulearn", resp.User.MUID)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, []string{models.RoleStudent}, resp.User.Roles)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, 1, tx.committed)
	repos.assertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, repos, _, _ := newTestAuthService(t)

	repos.users.On("EmailExists", mock.Anything, "jane@example.com").Return(true, nil)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", Password: "password123", Mobile: "9876543210",
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	repos.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_RejectsPrivilegedRole(t *testing.T) {
	svc, repos, _, _ := newTestAuthService(t)

	repos.users.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", Password: "password123", Mobile: "9876543210",
		Role: models.RoleAdmins,
	})

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestAuthService_Register_UnknownOrganization(t *testing.T) {
	svc, repos, _, _ := newTestAuthService(t)
	orgID := "missing"

	repos.users.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)
	repos.organizations.On("GetByID", mock.Anything, orgID).Return(nil, apperrors.NewResourceNotFoundError("organization not found"))

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", Password: "password123", Mobile: "9876543210",
		OrgID: &orgID,
	})

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestAuthService_Register_TransactionFailure(t *testing.T) {
	svc, repos, tx, pub := newTestAuthService(t)
	dbErr := errors.New("connection reset")

	repos.users.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)
	repos.users.On("MUIDExists", mock.Anything, "jane-doe@mulearn").Return(false, nil)
	repos.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	repos.wallets.On("Create", mock.Anything, mock.Anything).Return(dbErr)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", Password: "password123", Mobile: "9876543210",
	})

	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, tx.rolledBack)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)

	activeUser := func() *models.User {
		return &models.User{ID: "user-1", MUID: "jane-doe@mulearn", Email: "jane@example.com", Password: hashed, Active: true}
	}

	t.Run("success", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		repos.users.On("GetByEmailOrMUID", mock.Anything, "jane-doe@mulearn").Return(activeUser(), nil)
		repos.users.On("GetRoles", mock.Anything, "user-1").Return([]string{models.RoleStudent}, nil)
		repos.tokens.On("Create", mock.Anything, mock.Anything, "user-1", mock.Anything).Return(nil)
		repos.users.On("GetOrganizationTitles", mock.Anything, "user-1").Return([]string{"CET"}, nil)
		repos.wallets.On("GetByUserID", mock.Anything, "user-1").Return(&models.Wallet{Karma: 42}, nil)

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{EmailOrMuid: "jane-doe@mulearn", Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, int64(42), resp.User.Karma)
		assert.Equal(t, []string{"CET"}, resp.User.Organizations)
		repos.assertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		repos.users.On("GetByEmailOrMUID", mock.Anything, "nobody").Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.Login(context.Background(), &dto.LoginRequest{EmailOrMuid: "nobody", Password: "password123"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		repos.users.On("GetByEmailOrMUID", mock.Anything, "jane@example.com").Return(activeUser(), nil)

		_, err := svc.Login(context.Background(), &dto.LoginRequest{EmailOrMuid: "jane@example.com", Password: "nope"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		user := activeUser()
		user.Active = false
		repos.users.On("GetByEmailOrMUID", mock.Anything, "jane@example.com").Return(user, nil)

		_, err := svc.Login(context.Background(), &dto.LoginRequest{EmailOrMuid: "jane@example.com", Password: "password123"})
		assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
	})

	t.Run("missing wallet counts as zero karma", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		repos.users.On("GetByEmailOrMUID", mock.Anything, "jane@example.com").Return(activeUser(), nil)
		repos.users.On("GetRoles", mock.Anything, "user-1").Return([]string{}, nil)
		repos.tokens.On("Create", mock.Anything, mock.Anything, "user-1", mock.Anything).Return(nil)
		repos.users.On("GetOrganizationTitles", mock.Anything, "user-1").Return(nil, nil)
		repos.wallets.On("GetByUserID", mock.Anything, "user-1").Return(nil, apperrors.ErrWalletNotFound)

		resp, err := svc.Login(context.Background(), &dto.LoginRequest{EmailOrMuid: "jane@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Zero(t, resp.User.Karma)
		assert.NotNil(t, resp.User.Organizations)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: "user-1", MUID: "jane-doe@mulearn", Active: true}

	t.Run("rotates the token", func(t *testing.T) {
		svc, repos, tx, _ := newTestAuthService(t)
		svc.now = func() time.Time { return now }

		repos.tokens.On("GetForUpdate", mock.Anything, "old").Return(&models.RefreshToken{
			Token: "old", UserID: "user-1", ExpiryDate: now.Add(time.Hour),
		}, nil)
		repos.users.On("GetByID", mock.Anything, "user-1").Return(user, nil)
		repos.users.On("GetRoles", mock.Anything, "user-1").Return([]string{models.RoleStudent}, nil)
		repos.tokens.On("Revoke", mock.Anything, "old").Return(nil)
		repos.tokens.On("Create", mock.Anything, mock.Anything, "user-1", mock.Anything).Return(nil)

		resp, err := svc.RefreshToken(context.Background(), "old")

		require.NoError(t, err)
		assert.NotEqual(t, "old", resp.RefreshToken)
		assert.Equal(t, 1, tx.committed)
		repos.assertExpectations(t)
	})

	t.Run("revoked", func(t *testing.T) {
		svc, repos, tx, _ := newTestAuthService(t)
		svc.now = func() time.Time { return now }
		repos.tokens.On("GetForUpdate", mock.Anything, "old").Return(&models.RefreshToken{
			Token: "old", UserID: "user-1", ExpiryDate: now.Add(time.Hour), IsRevoked: true,
		}, nil)

		_, err := svc.RefreshToken(context.Background(), "old")
		assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
		assert.Equal(t, 1, tx.rolledBack)
	})

	t.Run("expired", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		svc.now = func() time.Time { return now }
		repos.tokens.On("GetForUpdate", mock.Anything, "old").Return(&models.RefreshToken{
			Token: "old", UserID: "user-1", ExpiryDate: now,
		}, nil)

		_, err := svc.RefreshToken(context.Background(), "old")
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
		repos.tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})

	t.Run("unknown", func(t *testing.T) {
		svc, repos, _, _ := newTestAuthService(t)
		repos.tokens.On("GetForUpdate", mock.Anything, "old").Return(nil, apperrors.ErrTokenInvalid)

		_, err := svc.RefreshToken(context.Background(), "old")
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("blank", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(t)

		_, err := svc.RefreshToken(context.Background(), "  ")
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})
}
