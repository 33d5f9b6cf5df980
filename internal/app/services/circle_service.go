package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

const (
	circleCodePrefixLen = 6
	circleCodeAttempts  = 5
)

// CircleRules holds the configurable learning circle limits
type CircleRules struct {
	MaxMembers         int
	MaxMeetingsPerWeek int
	Location           *time.Location
	MeetReportHashtag  string
}

// CircleService manages learning circles, membership and meetings
type CircleService interface {
	Create(ctx context.Context, userID string, req *dto.CreateCircleRequest) (*models.LearningCircle, error)
	List(ctx context.Context, f repositories.CircleFilter, page, size int) (*dto.PaginatedResponse, error)
	Get(ctx context.Context, circleID, viewerID string) (*dto.CircleDetailResponse, error)
	Join(ctx context.Context, circleID, userID string) error
	RespondToRequest(ctx context.Context, circleID, leadID, memberID string, accept bool) error
	Leave(ctx context.Context, circleID, userID string) error
	TransferLead(ctx context.Context, circleID, leadID, newLeadID string) error

	ScheduleMeeting(ctx context.Context, circleID, userID string, req *dto.ScheduleMeetingRequest) (*models.CircleMeeting, error)
	ListMeetings(ctx context.Context, circleID string) ([]models.CircleMeeting, error)
	Attend(ctx context.Context, meetingID, userID string) error
	SubmitReport(ctx context.Context, meetingID, userID, report string) error
}

type circleServiceImpl struct {
	repos     *repositories.Repositories
	tx        repositories.Transactor
	publisher eventbus.Publisher
	rules     CircleRules
	logger    zerolog.Logger
	now       func() time.Time
	digits    func() int
}

// NewCircleService creates a new CircleService
func NewCircleService(
	repos *repositories.Repositories,
	tx repositories.Transactor,
	publisher eventbus.Publisher,
	rules CircleRules,
	logger zerolog.Logger,
) CircleService {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	return &circleServiceImpl{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		rules:     rules,
		logger:    logger,
		now:       time.Now,
		digits:    func() int { return rand.IntN(10000) },
	}
}

// Create starts a circle with the creator as its accepted lead
func (s *circleServiceImpl) Create(ctx context.Context, userID string, req *dto.CreateCircleRequest) (*models.LearningCircle, error) {
	if req.OrgID != nil {
		if _, err := s.repos.Organizations.GetByID(ctx, *req.OrgID); err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, apperrors.NewBadRequestError("organization does not exist")
			}
			return nil, err
		}
	}

	prefix := CircleCodePrefix(req.Name)
	var circle *models.LearningCircle

	for attempt := 1; ; attempt++ {
		circle = &models.LearningCircle{
			Name:       strings.TrimSpace(req.Name),
			CircleCode: fmt.Sprintf("%s%04d", prefix, s.digits()),
			OrgID:      req.OrgID,
			LeadID:     &userID,
			MeetPlace:  req.MeetPlace,
			Note:       req.Note,
		}

		err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
			if err := r.Circles.Create(ctx, circle); err != nil {
				return err
			}
			accepted := true
			return r.Circles.AddMember(ctx, circle.ID, userID, true, &accepted)
		})
		if err == nil {
			break
		}
		// Only the code can collide when inserting a new circle
		if errors.Is(err, apperrors.ErrConflict) && attempt < circleCodeAttempts {
			s.logger.Debug().Str("code", circle.CircleCode).Msg("Circle code taken, retrying")
			continue
		}
		return nil, err
	}

	circle.MemberCount = 1
	s.logger.Info().Str("circleID", circle.ID).Str("code", circle.CircleCode).Str("leadID", userID).Msg("Learning circle created")
	notifyCountsChanged(ctx, s.publisher, s.logger, "circle.created")
	return circle, nil
}

// List pages through circles matching f
func (s *circleServiceImpl) List(ctx context.Context, f repositories.CircleFilter, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	circles, total, err := s.repos.Circles.List(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	if circles == nil {
		circles = []models.LearningCircle{}
	}
	return paginated(circles, total, page, int(limit)), nil
}

// Get returns the circle with accepted members. Pending requests are only
// shown to the lead.
func (s *circleServiceImpl) Get(ctx context.Context, circleID, viewerID string) (*dto.CircleDetailResponse, error) {
	circle, err := s.repos.Circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	members, err := s.repos.Circles.ListMembers(ctx, circleID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CircleDetailResponse{
		LearningCircle: *circle,
		Members:        []models.CircleMember{},
	}
	var pending []models.CircleMember
	for _, m := range members {
		if !m.IsAccepted() {
			pending = append(pending, m)
			continue
		}
		resp.Members = append(resp.Members, m)
		if m.UserID == viewerID {
			resp.IsMember = true
			resp.IsLead = m.Lead
		}
	}
	if resp.IsLead {
		resp.PendingRequests = pending
	}
	return resp, nil
}

// Join files a pending request to join the circle
func (s *circleServiceImpl) Join(ctx context.Context, circleID, userID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		if _, err := r.Circles.GetForUpdate(ctx, circleID); err != nil {
			return err
		}

		_, err := r.Circles.GetMember(ctx, circleID, userID)
		switch {
		case err == nil:
			return apperrors.ErrAlreadyCircleMember
		case !errors.Is(err, apperrors.ErrNotCircleMember):
			return err
		}

		if err := s.ensureRoom(ctx, r, circleID); err != nil {
			return err
		}
		return r.Circles.AddMember(ctx, circleID, userID, false, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("circleID", circleID).Str("userID", userID).Msg("Circle join requested")
	return nil
}

// RespondToRequest lets the lead accept or reject a pending request
func (s *circleServiceImpl) RespondToRequest(ctx context.Context, circleID, leadID, memberID string, accept bool) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		circle, err := r.Circles.GetForUpdate(ctx, circleID)
		if err != nil {
			return err
		}
		if !isLead(circle, leadID) {
			return apperrors.ErrNotCircleLead
		}

		member, err := r.Circles.GetMember(ctx, circleID, memberID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotCircleMember) {
				return apperrors.NewResourceNotFoundError("join request not found")
			}
			return err
		}
		if member.IsAccepted() {
			return apperrors.ErrAlreadyCircleMember
		}

		if !accept {
			return r.Circles.RemoveMember(ctx, circleID, memberID)
		}
		if err := s.ensureRoom(ctx, r, circleID); err != nil {
			return err
		}
		return r.Circles.AcceptMember(ctx, circleID, memberID, s.now())
	})
}

// Leave removes the user. A leaving lead hands over to the longest accepted
// member; the last member leaving deletes the circle.
func (s *circleServiceImpl) Leave(ctx context.Context, circleID, userID string) error {
	deleted := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		if _, err := r.Circles.GetForUpdate(ctx, circleID); err != nil {
			return err
		}

		member, err := r.Circles.GetMember(ctx, circleID, userID)
		if err != nil {
			return err
		}
		if err := r.Circles.RemoveMember(ctx, circleID, userID); err != nil {
			return err
		}
		if !member.Lead {
			return nil
		}

		remaining, err := r.Circles.ListMembers(ctx, circleID)
		if err != nil {
			return err
		}
		for _, m := range remaining {
			if !m.IsAccepted() {
				continue
			}
			if err := r.Circles.SetMemberLead(ctx, circleID, m.UserID, true); err != nil {
				return err
			}
			return r.Circles.SetLead(ctx, circleID, &m.UserID)
		}

		deleted = true
		return r.Circles.Delete(ctx, circleID)
	})
	if err != nil {
		return err
	}

	if deleted {
		s.logger.Info().Str("circleID", circleID).Msg("Learning circle deleted after last member left")
		notifyCountsChanged(ctx, s.publisher, s.logger, "circle.deleted")
	}
	return nil
}

// TransferLead hands the circle to another accepted member
func (s *circleServiceImpl) TransferLead(ctx context.Context, circleID, leadID, newLeadID string) error {
	if leadID == newLeadID {
		return apperrors.NewBadRequestError("you already lead this circle")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		circle, err := r.Circles.GetForUpdate(ctx, circleID)
		if err != nil {
			return err
		}
		if !isLead(circle, leadID) {
			return apperrors.ErrNotCircleLead
		}

		member, err := r.Circles.GetMember(ctx, circleID, newLeadID)
		if err != nil {
			return err
		}
		if !member.IsAccepted() {
			return apperrors.NewBadRequestError("new lead must be an accepted member")
		}

		if err := r.Circles.SetMemberLead(ctx, circleID, leadID, false); err != nil {
			return err
		}
		if err := r.Circles.SetMemberLead(ctx, circleID, newLeadID, true); err != nil {
			return err
		}
		return r.Circles.SetLead(ctx, circleID, &newLeadID)
	})
}

// ScheduleMeeting adds a future meeting. The circle row is locked so two
// concurrent requests cannot both take the last slot of a week.
func (s *circleServiceImpl) ScheduleMeeting(ctx context.Context, circleID, userID string, req *dto.ScheduleMeetingRequest) (*models.CircleMeeting, error) {
	if !req.MeetTime.After(s.now()) {
		return nil, apperrors.ErrMeetingInPast
	}

	meeting := &models.CircleMeeting{
		CircleID:  circleID,
		Title:     strings.TrimSpace(req.Title),
		Location:  req.Location,
		MeetTime:  req.MeetTime,
		CreatedBy: &userID,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		circle, err := r.Circles.GetForUpdate(ctx, circleID)
		if err != nil {
			return err
		}
		if !isLead(circle, userID) {
			return apperrors.ErrNotCircleLead
		}

		from, to := meetingWeek(req.MeetTime, s.rules.Location)
		existing, err := r.Meetings.MeetTimesBetween(ctx, circleID, from, to)
		if err != nil {
			return err
		}
		if err := checkMeetingSlot(existing, req.MeetTime, s.rules.MaxMeetingsPerWeek, s.rules.Location); err != nil {
			return err
		}
		return r.Meetings.Create(ctx, meeting)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("circleID", circleID).Str("meetingID", meeting.ID).Time("meetTime", meeting.MeetTime).Msg("Circle meeting scheduled")
	return meeting, nil
}

// ListMeetings returns the circle's meetings, latest first
func (s *circleServiceImpl) ListMeetings(ctx context.Context, circleID string) ([]models.CircleMeeting, error) {
	if _, err := s.repos.Circles.GetByID(ctx, circleID); err != nil {
		return nil, err
	}
	meetings, err := s.repos.Meetings.ListByCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if meetings == nil {
		meetings = []models.CircleMeeting{}
	}
	return meetings, nil
}

// Attend records an accepted member at a meeting on the meeting's day
func (s *circleServiceImpl) Attend(ctx context.Context, meetingID, userID string) error {
	meeting, err := s.repos.Meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}

	member, err := s.repos.Circles.GetMember(ctx, meeting.CircleID, userID)
	if err != nil {
		return err
	}
	if !member.IsAccepted() {
		return apperrors.ErrNotCircleMember
	}

	if !helpers.SameDay(s.now(), meeting.MeetTime, s.rules.Location) {
		return apperrors.ErrMeetingNotToday
	}

	return s.repos.Meetings.AddAttendee(ctx, meetingID, userID)
}

// SubmitReport closes a past meeting and files pending karma for every
// attendee under the meeting report task
func (s *circleServiceImpl) SubmitReport(ctx context.Context, meetingID, userID, report string) error {
	credited := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		meeting, err := r.Meetings.GetForUpdate(ctx, meetingID)
		if err != nil {
			return err
		}

		circle, err := r.Circles.GetByID(ctx, meeting.CircleID)
		if err != nil {
			return err
		}
		if !isLead(circle, userID) {
			return apperrors.ErrNotCircleLead
		}
		if meeting.ReportSubmitted {
			return apperrors.ErrReportAlreadySubmited
		}
		if s.now().Before(meeting.MeetTime) {
			return apperrors.ErrMeetingNotStarted
		}

		if err := r.Meetings.SubmitReport(ctx, meetingID, strings.TrimSpace(report)); err != nil {
			return err
		}

		task, err := r.Tasks.GetByHashtag(ctx, s.rules.MeetReportHashtag)
		if err != nil {
			if errors.Is(err, apperrors.ErrTaskNotFound) {
				s.logger.Warn().Str("hashtag", s.rules.MeetReportHashtag).Msg("Meeting report task missing, no karma filed")
				return nil
			}
			return err
		}
		if !task.Active {
			return nil
		}

		attendees, err := r.Meetings.ListAttendeeIDs(ctx, meetingID)
		if err != nil {
			return err
		}
		for _, attendee := range attendees {
			activity := &models.KarmaActivity{
				UserID: attendee,
				TaskID: task.ID,
				Karma:  task.Karma,
			}
			if err := r.Karma.Create(ctx, activity); err != nil {
				return err
			}
		}
		credited = len(attendees)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("meetingID", meetingID).Int("attendees", credited).Msg("Meeting report submitted")
	return nil
}

func (s *circleServiceImpl) ensureRoom(ctx context.Context, r *repositories.Repositories, circleID string) error {
	count, err := r.Circles.CountAccepted(ctx, circleID)
	if err != nil {
		return err
	}
	if count >= s.rules.MaxMembers {
		return apperrors.ErrCircleFull
	}
	return nil
}

func isLead(circle *models.LearningCircle, userID string) bool {
	return circle.LeadID != nil && *circle.LeadID == userID
}

// CircleCodePrefix keeps the leading letters and digits of a circle name,
// upper cased
func CircleCodePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(r)
		if b.Len() == circleCodePrefixLen {
			break
		}
	}
	if b.Len() == 0 {
		return "LC"
	}
	return b.String()
}
