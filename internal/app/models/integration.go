package models

import "time"

// IntegrationAuthorization links a user to an account on a partner platform
type IntegrationAuthorization struct {
	ID               string    `json:"id" db:"id"`
	Integration      string    `json:"integration"`
	UserID           string    `json:"userId" db:"user_id"`
	IntegrationValue string    `json:"integrationValue" db:"integration_value"`
	AdditionalField  string    `json:"additionalField,omitempty" db:"additional_field"`
	Verified         bool      `json:"verified" db:"verified"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}
