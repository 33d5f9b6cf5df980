package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
)

// IMeetingRepository defines circle meeting operations
type IMeetingRepository interface {
	Create(ctx context.Context, m *models.CircleMeeting) error
	GetByID(ctx context.Context, id string) (*models.CircleMeeting, error)
	GetForUpdate(ctx context.Context, id string) (*models.CircleMeeting, error)
	ListByCircle(ctx context.Context, circleID string) ([]models.CircleMeeting, error)
	MeetTimesBetween(ctx context.Context, circleID string, from, to time.Time) ([]time.Time, error)
	AddAttendee(ctx context.Context, meetingID, userID string) error
	ListAttendeeIDs(ctx context.Context, meetingID string) ([]string, error)
	SubmitReport(ctx context.Context, meetingID, text string) error
}

// MeetingRepository handles circle_meetings and their attendees
type MeetingRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(q db.Querier) *MeetingRepository {
	return &MeetingRepository{db: q, sb: newBuilder()}
}

const attendeeCountColumn = `(SELECT COUNT(*) FROM circle_meeting_attendees a WHERE a.meeting_id = m.id) AS attendee_count`

func (r *MeetingRepository) selectMeetings() squirrel.SelectBuilder {
	return r.sb.Select("m.id", "m.circle_id", "m.title", "m.location", "m.meet_time", "m.report_text",
		"m.report_submitted", "m.created_by", "m.created_at", attendeeCountColumn).
		From("circle_meetings m")
}

func scanMeeting(row interface{ Scan(...any) error }, m *models.CircleMeeting) error {
	return row.Scan(&m.ID, &m.CircleID, &m.Title, &m.Location, &m.MeetTime, &m.ReportText,
		&m.ReportSubmitted, &m.CreatedBy, &m.CreatedAt, &m.AttendeeCount)
}

// Create inserts a meeting
func (r *MeetingRepository) Create(ctx context.Context, m *models.CircleMeeting) error {
	sql, args, err := r.sb.Insert("circle_meetings").
		Columns("circle_id", "title", "location", "meet_time", "created_by").
		Values(m.CircleID, m.Title, m.Location, m.MeetTime, m.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return buildErr("create meeting", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("error creating meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) get(ctx context.Context, id string, lock bool) (*models.CircleMeeting, error) {
	q := r.selectMeetings().Where(squirrel.Eq{"m.id": id})
	if lock {
		q = q.Suffix("FOR UPDATE OF m")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("get meeting", err)
	}

	m := &models.CircleMeeting{}
	if err := scanMeeting(r.db.QueryRow(ctx, sql, args...), m); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("error retrieving meeting: %w", err)
	}
	return m, nil
}

// GetByID retrieves a meeting with its attendee count
func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*models.CircleMeeting, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves and locks a meeting
func (r *MeetingRepository) GetForUpdate(ctx context.Context, id string) (*models.CircleMeeting, error) {
	return r.get(ctx, id, true)
}

// ListByCircle returns a circle's meetings, latest first
func (r *MeetingRepository) ListByCircle(ctx context.Context, circleID string) ([]models.CircleMeeting, error) {
	sql, args, err := r.selectMeetings().
		Where(squirrel.Eq{"m.circle_id": circleID}).
		OrderBy("m.meet_time DESC").
		ToSql()
	if err != nil {
		return nil, buildErr("list meetings", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing meetings: %w", err)
	}
	defer rows.Close()

	meetings := []models.CircleMeeting{}
	for rows.Next() {
		var m models.CircleMeeting
		if err := scanMeeting(rows, &m); err != nil {
			return nil, fmt.Errorf("error scanning meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// MeetTimesBetween lists meeting times in [from, to)
func (r *MeetingRepository) MeetTimesBetween(ctx context.Context, circleID string, from, to time.Time) ([]time.Time, error) {
	sql, args, err := r.sb.Select("meet_time").
		From("circle_meetings").
		Where(squirrel.Eq{"circle_id": circleID}).
		Where(squirrel.GtOrEq{"meet_time": from}).
		Where(squirrel.Lt{"meet_time": to}).
		OrderBy("meet_time").
		ToSql()
	if err != nil {
		return nil, buildErr("meeting times", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying meeting times: %w", err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("error scanning meeting time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// AddAttendee records attendance once per user
func (r *MeetingRepository) AddAttendee(ctx context.Context, meetingID, userID string) error {
	sql, args, err := r.sb.Insert("circle_meeting_attendees").
		Columns("meeting_id", "user_id", "joined_at").
		Values(meetingID, userID, time.Now()).
		ToSql()
	if err != nil {
		return buildErr("add attendee", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "circle_meeting_attendees_pkey") {
			return apperrors.NewConflictError("attendance already recorded")
		}
		return fmt.Errorf("error adding attendee: %w", err)
	}
	return nil
}

// ListAttendeeIDs returns the user ids that attended a meeting
func (r *MeetingRepository) ListAttendeeIDs(ctx context.Context, meetingID string) ([]string, error) {
	sql, args, err := r.sb.Select("user_id").
		From("circle_meeting_attendees").
		Where(squirrel.Eq{"meeting_id": meetingID}).
		OrderBy("joined_at").
		ToSql()
	if err != nil {
		return nil, buildErr("list attendees", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendees: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning attendee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SubmitReport stores the report once
func (r *MeetingRepository) SubmitReport(ctx context.Context, meetingID, text string) error {
	sql, args, err := r.sb.Update("circle_meetings").
		Set("report_text", text).
		Set("report_submitted", true).
		Where(squirrel.Eq{"id": meetingID, "report_submitted": false}).
		ToSql()
	if err != nil {
		return buildErr("submit report", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error submitting report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrReportAlreadySubmited
	}
	return nil
}
