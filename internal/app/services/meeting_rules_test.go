package services

import (
	"testing"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestCheckMeetingSlot(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	at := func(day, hour int) time.Time {
		// June 2025: the 2nd is a Monday
		return time.Date(2025, time.June, day, hour, 0, 0, 0, ist)
	}

	tests := []struct {
		name     string
		existing []time.Time
		meetTime time.Time
		max      int
		want     error
	}{
		{name: "empty week", meetTime: at(4, 18), max: 5},
		{name: "same local day", existing: []time.Time{at(4, 9)}, meetTime: at(4, 18), max: 5, want: apperrors.ErrMeetingSlotTaken},
		{
			name: "same UTC day but different local day",
			// 23:30 IST on the 3rd is 18:00 UTC on the 3rd, 00:30 IST on the 4th is 19:00 UTC on the 3rd
			existing: []time.Time{time.Date(2025, time.June, 3, 23, 30, 0, 0, ist)},
			meetTime: time.Date(2025, time.June, 4, 0, 30, 0, 0, ist),
			max:      5,
		},
		{
			name:     "weekly limit reached",
			existing: []time.Time{at(2, 18), at(3, 18), at(4, 18), at(5, 18), at(6, 18)},
			meetTime: at(7, 18),
			max:      5,
			want:     apperrors.ErrWeeklyMeetingLimit,
		},
		{
			name:     "previous week does not count",
			existing: []time.Time{at(1, 18), at(3, 18), at(4, 18), at(5, 18), at(6, 18)},
			meetTime: at(7, 18),
			max:      5,
		},
		{
			name:     "sunday closes the week",
			existing: []time.Time{at(2, 18), at(3, 18), at(4, 18), at(5, 18), at(6, 18)},
			meetTime: at(8, 18),
			max:      5,
			want:     apperrors.ErrWeeklyMeetingLimit,
		},
		{
			name:     "monday opens a new week",
			existing: []time.Time{at(2, 18), at(3, 18), at(4, 18), at(5, 18), at(6, 18)},
			meetTime: at(9, 0),
			max:      5,
		},
		{name: "custom limit", existing: []time.Time{at(2, 18)}, meetTime: at(3, 18), max: 1, want: apperrors.ErrWeeklyMeetingLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMeetingSlot(tt.existing, tt.meetTime, tt.max, ist)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestMeetingWeek(t *testing.T) {
	start, end := meetingWeek(time.Date(2025, time.June, 8, 23, 59, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), end)
}
