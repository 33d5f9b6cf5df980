package models

import "time"

// LearningCircle is a small peer-study group
type LearningCircle struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	CircleCode string    `json:"circleCode" db:"circle_code"`
	OrgID      *string   `json:"orgId,omitempty" db:"org_id"`
	LeadID     *string   `json:"leadId,omitempty" db:"lead_id"`
	MeetPlace  string    `json:"meetPlace" db:"meet_place"`
	Note       string    `json:"note" db:"note"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	// MemberCount is filled by list queries
	MemberCount int `json:"memberCount"`
}

// CircleMember is a user_circle_links row joined with the user.
// Accepted is nil for a pending join request.
type CircleMember struct {
	UserID     string     `json:"userId" db:"user_id"`
	FullName   string     `json:"fullName"`
	MUID       string     `json:"muid"`
	Lead       bool       `json:"lead" db:"lead"`
	Accepted   *bool      `json:"accepted" db:"accepted"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// IsAccepted reports whether the member has been let into the circle
func (m *CircleMember) IsAccepted() bool {
	return m.Accepted != nil && *m.Accepted
}

// CircleMeeting is a scheduled circle meeting and its report
type CircleMeeting struct {
	ID              string    `json:"id" db:"id"`
	CircleID        string    `json:"circleId" db:"circle_id"`
	Title           string    `json:"title" db:"title"`
	Location        string    `json:"location" db:"location"`
	MeetTime        time.Time `json:"meetTime" db:"meet_time"`
	ReportText      string    `json:"reportText,omitempty" db:"report_text"`
	ReportSubmitted bool      `json:"reportSubmitted" db:"report_submitted"`
	CreatedBy       *string   `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	AttendeeCount   int       `json:"attendeeCount"`
}
