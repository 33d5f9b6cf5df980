package models

import "time"

// Task is a karma-earning action identified by a hashtag
type Task struct {
	ID      string `json:"id" db:"id"`
	Hashtag string `json:"hashtag" db:"hashtag"`
	Title   string `json:"title" db:"title"`
	Karma   int    `json:"karma" db:"karma"`
	Active  bool   `json:"active" db:"active"`
}

// KarmaActivity is one karma award request and its approval state.
// AppraiserApproved is nil while the activity is pending.
type KarmaActivity struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"userId" db:"user_id"`
	TaskID            string     `json:"taskId" db:"task_id"`
	Hashtag           string     `json:"hashtag"`
	Karma             int        `json:"karma" db:"karma"`
	ProofURL          string     `json:"proofUrl" db:"proof_url"`
	AppraiserApproved *bool      `json:"appraiserApproved" db:"appraiser_approved"`
	AppraisedBy       *string    `json:"appraisedBy,omitempty" db:"appraised_by"`
	AppraisedAt       *time.Time `json:"appraisedAt,omitempty" db:"appraised_at"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
}

// Pending reports whether the activity still awaits an appraiser
func (a *KarmaActivity) Pending() bool {
	return a.AppraiserApproved == nil
}
