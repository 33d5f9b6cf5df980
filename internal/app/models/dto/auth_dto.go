package dto

import "time"

// RegisterRequest represents a new member sign up
type RegisterRequest struct {
	FullName string  `json:"fullName" binding:"notblank,min=2,max=150"`
	Email    string  `json:"email" binding:"required,email,max=200"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Mobile   string  `json:"mobile" binding:"required,mobile"`
	OrgID    *string `json:"orgId,omitempty" binding:"omitempty,uuid"`
	Role     string  `json:"role,omitempty" binding:"omitempty,oneof=Student Enabler" example:"Student"`
}

// LoginRequest accepts either an email address or a muid
type LoginRequest struct {
	EmailOrMuid string `json:"emailOrMuid" binding:"notblank" example:"jane-doe@mulearn"`
	Password    string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int    `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken"`
	RefreshTokenExpiresIn int    `json:"refreshTokenExpiresIn" example:"2592000"`
}

// UserResponse is the authenticated member's profile
type UserResponse struct {
	ID            string    `json:"id"`
	MUID          string    `json:"muid" example:"jane-doe@mulearn"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Mobile        string    `json:"mobile"`
	DiscordID     *string   `json:"discordId,omitempty"`
	Roles         []string  `json:"roles"`
	Organizations []string  `json:"organizations"`
	Karma         int64     `json:"karma"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}
