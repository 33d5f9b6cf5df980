package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
)

// IEventRepository defines event listings
type IEventRepository interface {
	ListUpcoming(ctx context.Context, now time.Time, offset, limit uint64) ([]models.Event, int64, error)
}

// EventRepository handles events
type EventRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(q db.Querier) *EventRepository {
	return &EventRepository{db: q, sb: newBuilder()}
}

// ListUpcoming returns events that have not ended, soonest first
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, offset, limit uint64) ([]models.Event, int64, error) {
	base := r.sb.Select("id", "name", "description", "starts_at", "ends_at", "location").
		From("events").
		Where(squirrel.GtOrEq{"ends_at": now})

	sql, args, err := countQuery(base).ToSql()
	if err != nil {
		return nil, 0, buildErr("count events", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	sql, args, err = base.OrderBy("starts_at", "id").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, buildErr("list events", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location); err != nil {
			return nil, 0, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
