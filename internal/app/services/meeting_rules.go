package services

import (
	"time"

	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
)

// meetingWeek returns the [Monday 00:00, next Monday 00:00) window holding t
func meetingWeek(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := helpers.StartOfWeek(t, loc)
	return start, start.AddDate(0, 0, 7)
}

// checkMeetingSlot validates a new meeting against the meetings already
// scheduled in its week: one meeting per local day and at most maxPerWeek.
func checkMeetingSlot(existing []time.Time, meetTime time.Time, maxPerWeek int, loc *time.Location) error {
	weekStart, weekEnd := meetingWeek(meetTime, loc)

	inWeek := 0
	for _, t := range existing {
		if helpers.SameDay(t, meetTime, loc) {
			return apperrors.ErrMeetingSlotTaken
		}
		if !t.Before(weekStart) && t.Before(weekEnd) {
			inWeek++
		}
	}

	if inWeek >= maxPerWeek {
		return apperrors.ErrWeeklyMeetingLimit
	}
	return nil
}
