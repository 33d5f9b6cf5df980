package models

import "time"

// Voucher is a redeemable karma grant issued to one user
type Voucher struct {
	ID        string     `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	UserID    string     `json:"userId" db:"user_id"`
	TaskID    string     `json:"taskId" db:"task_id"`
	Hashtag   string     `json:"hashtag"`
	Karma     int        `json:"karma" db:"karma"`
	Month     string     `json:"month" db:"month"`
	Week      string     `json:"week" db:"week"`
	Claimed   bool       `json:"claimed" db:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty" db:"claimed_at"`
	IssuedBy  *string    `json:"issuedBy,omitempty" db:"issued_by"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
