// Package seed creates the data a fresh deployment needs beyond what the
// migrations insert
package seed

import (
	"context"
	"fmt"
	"strings"

	appModels "github.com/gtech-mulearn/mulearn/internal/app/models"
	appRepos "github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/gtech-mulearn/mulearn/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Admin describes the bootstrap administrator
type Admin struct {
	FullName string
	Email    string
	Password string
	Mobile   string
}

// EnsureAdmin creates the administrator with an empty wallet and the Admins
// role unless a user with the same email exists. It is a no-op when Email
// or Password is empty.
func EnsureAdmin(ctx context.Context, repos *appRepos.Repositories, tx appRepos.Transactor, admin Admin, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Debug().Msg("No seed admin configured, skipping")
		return nil
	}

	exists, err := repos.Users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("error checking if admin exists: %w", err)
	}
	if exists {
		lgr.Info().Str("email", email).Msg("Admin user already exists, skipping creation")
		return nil
	}

	name := strings.TrimSpace(admin.FullName)
	if name == "" {
		name = "Administrator"
	}
	mobile := admin.Mobile
	if mobile == "" {
		mobile = "0000000000"
	}

	hashed, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	user := &appModels.User{
		MUID:     services.MUIDBase(name) + services.MUIDDomain,
		FullName: name,
		Email:    email,
		Mobile:   mobile,
		Password: hashed,
	}

	err = tx.WithinTx(ctx, func(ctx context.Context, r *appRepos.Repositories) error {
		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := r.Wallets.Create(ctx, user.ID); err != nil {
			return err
		}
		return r.Users.AssignRole(ctx, user.ID, appModels.RoleAdmins)
	})
	if err != nil {
		return fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Str("userID", user.ID).Str("muid", user.MUID).Msg("Default admin user created")
	return nil
}
