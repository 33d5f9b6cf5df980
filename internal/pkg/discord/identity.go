// Package discord resolves Discord accounts from OAuth access tokens.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrMissingToken is returned for an empty access token
var ErrMissingToken = errors.New("discord access token is required")

// Identity is the part of a Discord user that the platform stores
type Identity struct {
	ID       string
	Username string
}

// Resolver looks up the Discord user that owns an access token
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) (*Identity, error)
}

// OAuthResolver calls the Discord REST API as the token owner
type OAuthResolver struct {
	client *http.Client
}

// NewOAuthResolver creates a resolver whose requests time out after timeout
func NewOAuthResolver(timeout time.Duration) *OAuthResolver {
	return &OAuthResolver{client: &http.Client{Timeout: timeout}}
}

// Resolve opens a bearer session and fetches @me
func (r *OAuthResolver) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, ErrMissingToken
	}

	session, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Client = r.client

	user, err := session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	return &Identity{ID: user.ID, Username: user.Username}, nil
}
