package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        string    `json:"id" db:"id" example:"8a1e6f0e-5a55-4f7e-9d0c-6a2b0b8f9c11"`
	MUID      string    `json:"muid" db:"muid" example:"jane-doe@mulearn"`
	FullName  string    `json:"fullName" db:"full_name" example:"Jane Doe"`
	Email     string    `json:"email" db:"email" example:"jane@example.com"`
	Mobile    string    `json:"mobile" db:"mobile" example:"9876543210"`
	Password  string    `json:"-" db:"password"`
	DiscordID *string   `json:"discordId,omitempty" db:"discord_id"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Wallet holds a user's karma balance, one per user
type Wallet struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"userId" db:"user_id"`
	Karma              int64      `json:"karma" db:"karma"`
	KarmaLastUpdatedAt *time.Time `json:"karmaLastUpdatedAt,omitempty" db:"karma_last_updated_at"`
}

// RefreshToken is an opaque token exchanged for a new token pair
type RefreshToken struct {
	Token      string    `db:"token"`
	UserID     string    `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}
