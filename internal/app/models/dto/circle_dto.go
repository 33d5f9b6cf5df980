package dto

import (
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
)

// CreateCircleRequest starts a new learning circle
type CreateCircleRequest struct {
	Name      string  `json:"name" binding:"notblank,max=255"`
	OrgID     *string `json:"orgId,omitempty" binding:"omitempty,uuid"`
	MeetPlace string  `json:"meetPlace" binding:"max=255"`
	Note      string  `json:"note" binding:"max=2000"`
}

// RespondToRequest accepts or rejects a pending member
type RespondToRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// TransferLeadRequest hands the circle over to another member
type TransferLeadRequest struct {
	NewLeadID string `json:"newLeadId" binding:"required,uuid"`
}

// ScheduleMeetingRequest creates a circle meeting
type ScheduleMeetingRequest struct {
	Title    string    `json:"title" binding:"notblank,max=100"`
	Location string    `json:"location" binding:"max=255"`
	MeetTime time.Time `json:"meetTime" binding:"required" example:"2025-06-02T18:30:00+05:30"`
}

// MeetingReportRequest closes a meeting with a report
type MeetingReportRequest struct {
	Report string `json:"report" binding:"notblank,min=20,max=5000"`
}

// CircleDetailResponse is a circle with its members. PendingRequests is
// only filled for the lead.
type CircleDetailResponse struct {
	models.LearningCircle
	Members         []models.CircleMember `json:"members"`
	PendingRequests []models.CircleMember `json:"pendingRequests,omitempty"`
	IsMember        bool                  `json:"isMember"`
	IsLead          bool                  `json:"isLead"`
}
