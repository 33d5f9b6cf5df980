package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmailOrMUID(ctx context.Context, value string) (*models.User, error)
	GetByMUIDOrEmail(ctx context.Context, muid, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MUIDExists(ctx context.Context, muid string) (bool, error)

	AssignRole(ctx context.Context, userID, role string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)
	LinkOrganization(ctx context.Context, userID, orgID string) error
	GetOrganizationTitles(ctx context.Context, userID string) ([]string, error)

	SetDiscordID(ctx context.Context, userID, discordID string) error
}

// UserRepository handles user database operations
type UserRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(q db.Querier) *UserRepository {
	return &UserRepository{db: q, sb: newBuilder()}
}

var userColumns = []string{
	"id", "muid", "full_name", "email", "mobile", "password", "discord_id", "active", "created_at", "updated_at",
}

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.MUID, &u.FullName, &u.Email, &u.Mobile, &u.Password,
		&u.DiscordID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts user and fills its ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("muid", "full_name", "email", "mobile", "password", "active").
		Values(user.MUID, user.FullName, user.Email, user.Mobile, user.Password, true).
		Suffix("RETURNING id, active, created_at, updated_at").
		ToSql()
	if err != nil {
		return buildErr("create user", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
			return apperrors.ErrEmailAlreadyExists
		case dberrors.IsDuplicateConstraintError(err, "users_muid_key"):
			return apperrors.NewConflictError("muid already taken")
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, buildErr("get user", err)
	}

	user := &models.User{}
	if err := scanUser(r.db.QueryRow(ctx, sql, args...), user); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmailOrMUID retrieves a user whose email or muid equals value
func (r *UserRepository) GetByEmailOrMUID(ctx context.Context, value string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Expr("LOWER(email) = LOWER(?)", value),
		squirrel.Eq{"muid": value},
	})
}

// GetByMUIDOrEmail looks up by muid when set, else by email
func (r *UserRepository) GetByMUIDOrEmail(ctx context.Context, muid, email string) (*models.User, error) {
	if muid != "" {
		return r.getOne(ctx, squirrel.Eq{"muid": muid})
	}
	return r.getOne(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

func (r *UserRepository) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.sb.Select("1").From("users").Where(where).Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, buildErr("user exists", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return exists, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

// MUIDExists checks if a muid is taken
func (r *UserRepository) MUIDExists(ctx context.Context, muid string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"muid": muid})
}

// AssignRole links the user to the role with the given title
func (r *UserRepository) AssignRole(ctx context.Context, userID, role string) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_role_links (user_id, role_id, verified)
		SELECT $1::uuid, id, TRUE FROM roles WHERE title = $2
		ON CONFLICT DO NOTHING`,
		userID, role)
	if err != nil {
		return fmt.Errorf("error assigning role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.roleExists(ctx, role)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NewBadRequestError(fmt.Sprintf("unknown role %q", role))
		}
	}
	return nil
}

func (r *UserRepository) roleExists(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM roles WHERE title = $1)", role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking role: %w", err)
	}
	return exists, nil
}

// GetRoles lists the verified role titles of a user
func (r *UserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	sql, args, err := r.sb.Select("r.title").
		From("user_role_links l").
		Join("roles r ON r.id = l.role_id").
		Where(squirrel.Eq{"l.user_id": userID, "l.verified": true}).
		OrderBy("r.title").
		ToSql()
	if err != nil {
		return nil, buildErr("get roles", err)
	}
	return r.strings(ctx, sql, args)
}

// LinkOrganization adds a verified membership
func (r *UserRepository) LinkOrganization(ctx context.Context, userID, orgID string) error {
	sql, args, err := r.sb.Insert("user_organization_links").
		Columns("user_id", "org_id", "verified", "created_at").
		Values(userID, orgID, true, time.Now()).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return buildErr("link organization", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error linking organization: %w", err)
	}
	return nil
}

// GetOrganizationTitles lists titles of the user's verified organizations
func (r *UserRepository) GetOrganizationTitles(ctx context.Context, userID string) ([]string, error) {
	sql, args, err := r.sb.Select("o.title").
		From("user_organization_links l").
		Join("organizations o ON o.id = l.org_id").
		Where(squirrel.Eq{"l.user_id": userID, "l.verified": true}).
		OrderBy("o.title").
		ToSql()
	if err != nil {
		return nil, buildErr("get organizations", err)
	}
	return r.strings(ctx, sql, args)
}

func (r *UserRepository) strings(ctx context.Context, sql string, args []any) ([]string, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetDiscordID stores the Discord account of a user
func (r *UserRepository) SetDiscordID(ctx context.Context, userID, discordID string) error {
	sql, args, err := r.sb.Update("users").
		Set("discord_id", discordID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return buildErr("set discord id", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_discord_id_key") {
			return apperrors.ErrIntegrationValueTaken
		}
		return fmt.Errorf("error setting discord id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
