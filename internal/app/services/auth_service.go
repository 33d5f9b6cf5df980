package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/auth"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/rs/zerolog"
)

const (
	// MUIDDomain is appended to every generated muid
	MUIDDomain = "@mulearn"
	// maxMUIDAttempts bounds the numeric suffix search
	maxMUIDAttempts = 1000
	maxMUIDBaseLen  = 80
)

// AuthService handles authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authServiceImpl struct {
	repos      *repositories.Repositories
	tx         repositories.Transactor
	jwtService *auth.JWTService
	publisher  eventbus.Publisher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repos *repositories.Repositories,
	tx repositories.Transactor,
	jwtService *auth.JWTService,
	publisher eventbus.Publisher,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		repos:      repos,
		tx:         tx,
		jwtService: jwtService,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates the user with a wallet, a role and an optional
// organization link in one transaction
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repos.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleEnabler {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("role %q cannot be chosen at registration", role))
	}

	if req.OrgID != nil {
		if _, err := s.repos.Organizations.GetByID(ctx, *req.OrgID); err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, apperrors.NewBadRequestError("organization does not exist")
			}
			return nil, err
		}
	}

	muid, err := s.generateMUID(ctx, req.FullName)
	if err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		MUID:     muid,
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Mobile:   req.Mobile,
		Password: hashed,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := r.Wallets.Create(ctx, user.ID); err != nil {
			return err
		}
		if err := r.Users.AssignRole(ctx, user.ID, role); err != nil {
			return err
		}
		if req.OrgID != nil {
			return r.Users.LinkOrganization(ctx, user.ID, *req.OrgID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("user registration failed: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Str("muid", user.MUID).Str("role", role).Msg("User registered")
	notifyCountsChanged(ctx, s.publisher, s.logger, "user.registered")

	roles := []string{role}
	token, err := s.issueTokens(ctx, s.repos, user, roles)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: *token,
		User:  toUserResponse(user, roles, nil, 0),
	}, nil
}

// Login authenticates with an email address or a muid
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repos.Users.GetByEmailOrMUID(ctx, strings.TrimSpace(req.EmailOrMuid))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrAccountDisabled
	}

	roles, err := s.repos.Users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.issueTokens(ctx, s.repos, user, roles)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: *token, User: *profile}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented
// token is revoked so each refresh token works once.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	var token *dto.TokenResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		stored, err := r.Tokens.GetForUpdate(ctx, refreshToken)
		if err != nil {
			return err
		}
		if stored.IsRevoked {
			return apperrors.ErrTokenRevoked
		}
		if !stored.ExpiryDate.After(s.now()) {
			return apperrors.ErrTokenExpired
		}

		user, err := r.Users.GetByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if !user.Active {
			return apperrors.ErrAccountDisabled
		}

		roles, err := r.Users.GetRoles(ctx, user.ID)
		if err != nil {
			return err
		}

		if err := r.Tokens.Revoke(ctx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke old token: %w", err)
		}

		token, err = s.issueTokens(ctx, r, user, roles)
		return err
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// GetProfile returns the user with roles, organizations and karma
func (s *authServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.repos.Users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user, roles)
}

func (s *authServiceImpl) profile(ctx context.Context, user *models.User, roles []string) (*dto.UserResponse, error) {
	orgs, err := s.repos.Users.GetOrganizationTitles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var karma int64
	wallet, err := s.repos.Wallets.GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		karma = wallet.Karma
	case errors.Is(err, apperrors.ErrWalletNotFound):
		s.logger.Warn().Str("userID", user.ID).Msg("User has no wallet")
	default:
		return nil, err
	}

	resp := toUserResponse(user, roles, orgs, karma)
	return &resp, nil
}

// issueTokens signs a token pair and stores the refresh token through r
func (s *authServiceImpl) issueTokens(ctx context.Context, r *repositories.Repositories, user *models.User, roles []string) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user, roles)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := r.Tokens.Create(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}

// generateMUID returns the first free muid for fullName: jane-doe@mulearn,
// then jane-doe-1@mulearn, jane-doe-2@mulearn and so on
func (s *authServiceImpl) generateMUID(ctx context.Context, fullName string) (string, error) {
	base := MUIDBase(fullName)

	for i := 0; i < maxMUIDAttempts; i++ {
		candidate := base + MUIDDomain
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i) + MUIDDomain
		}

		taken, err := s.repos.Users.MUIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("error checking muid: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperrors.NewConflictError("could not allocate a muid for this name")
}

// MUIDBase lowercases a name and joins its words with dashes. Characters
// other than letters and digits are dropped.
func MUIDBase(fullName string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(fullName)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			dash = true
		}
	}

	base := b.String()
	if runes := []rune(base); len(runes) > maxMUIDBaseLen {
		base = strings.TrimRight(string(runes[:maxMUIDBaseLen]), "-")
	}
	if base == "" {
		base = "learner"
	}
	return base
}

func toUserResponse(user *models.User, roles, orgs []string, karma int64) dto.UserResponse {
	if roles == nil {
		roles = []string{}
	}
	if orgs == nil {
		orgs = []string{}
	}
	return dto.UserResponse{
		ID:            user.ID,
		MUID:          user.MUID,
		FullName:      user.FullName,
		Email:         user.Email,
		Mobile:        user.Mobile,
		DiscordID:     user.DiscordID,
		Roles:         roles,
		Organizations: orgs,
		Karma:         karma,
		CreatedAt:     user.CreatedAt,
	}
}
