package services

import (
	"context"
	"testing"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var kolkata = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

func newTestCircleService(now time.Time) (*circleServiceImpl, *testRepos, *fakeTransactor, *MockEventPublisher) {
	repos := newTestRepos()
	tx := &fakeTransactor{repos: repos.repositories()}
	pub := new(MockEventPublisher)
	svc := NewCircleService(repos.repositories(), tx, pub, CircleRules{
		MaxMembers:         3,
		MaxMeetingsPerWeek: 2,
		Location:           kolkata,
		MeetReportHashtag:  "#lcmeetreport",
	}, zerolog.Nop()).(*circleServiceImpl)
	svc.now = func() time.Time { return now }
	return svc, repos, tx, pub
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func circleLedBy(leadID string) *models.LearningCircle {
	return &models.LearningCircle{ID: "circle-1", Name: "Go Study", LeadID: strPtr(leadID)}
}

func TestCircleCodePrefix(t *testing.T) {
	assert.Equal(t, "GOSTUD", CircleCodePrefix("Go Study Group"))
	assert.Equal(t, "AI", CircleCodePrefix("a.i."))
	assert.Equal(t, "WEB3", CircleCodePrefix("web 3"))
	assert.Equal(t, "LC", CircleCodePrefix("ഗോ പഠനം"))
	assert.Equal(t, "LC", CircleCodePrefix(""))
}

func TestCircleService_Create(t *testing.T) {
	svc, repos, tx, pub := newTestCircleService(time.Now())
	svc.digits = func() int { return 42 }

	repos.circles.On("Create", mock.Anything, mock.MatchedBy(func(c *models.LearningCircle) bool {
		return c.CircleCode == "GOSTUD0042" && *c.LeadID == "user-1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.LearningCircle).ID = "circle-1"
	}).Return(nil)
	repos.circles.On("AddMember", mock.Anything, "circle-1", "user-1", true, boolPtr(true)).Return(nil)
	pub.On("Publish", mock.Anything, eventbus.SubjectCountsChanged, eventbus.CountsChanged{Reason: "circle.created"}).Return(nil)

	circle, err := svc.Create(context.Background(), "user-1", &dto.CreateCircleRequest{Name: " Go Study "})

	require.NoError(t, err)
	assert.Equal(t, "Go Study", circle.Name)
	assert.Equal(t, 1, circle.MemberCount)
	assert.Equal(t, 1, tx.committed)
	repos.assertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCircleService_Create_RetriesOnCodeConflict(t *testing.T) {
	svc, repos, tx, pub := newTestCircleService(time.Now())
	codes := []int{1, 2}
	svc.digits = func() int {
		d := codes[0]
		codes = codes[1:]
		return d
	}

	repos.circles.On("Create", mock.Anything, mock.MatchedBy(func(c *models.LearningCircle) bool {
		return c.CircleCode == "GO0001"
	})).Return(apperrors.NewConflictError("circle code already exists")).Once()
	repos.circles.On("Create", mock.Anything, mock.MatchedBy(func(c *models.LearningCircle) bool {
		return c.CircleCode == "GO0002"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.LearningCircle).ID = "circle-1"
	}).Return(nil).Once()
	repos.circles.On("AddMember", mock.Anything, "circle-1", "user-1", true, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	circle, err := svc.Create(context.Background(), "user-1", &dto.CreateCircleRequest{Name: "Go"})

	require.NoError(t, err)
	assert.Equal(t, "GO0002", circle.CircleCode)
	assert.Equal(t, 1, tx.rolledBack)
	assert.Equal(t, 1, tx.committed)
}

func TestCircleService_Create_GivesUpAfterRepeatedConflicts(t *testing.T) {
	svc, repos, tx, _ := newTestCircleService(time.Now())
	svc.digits = func() int { return 7 }

	repos.circles.On("Create", mock.Anything, mock.Anything).Return(apperrors.NewConflictError("circle code already exists"))

	_, err := svc.Create(context.Background(), "user-1", &dto.CreateCircleRequest{Name: "Go"})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, circleCodeAttempts, tx.rolledBack)
}

func TestCircleService_Create_UnknownOrganization(t *testing.T) {
	svc, repos, _, _ := newTestCircleService(time.Now())
	repos.organizations.On("GetByID", mock.Anything, "org-x").Return(nil, apperrors.NewResourceNotFoundError("organization not found"))

	_, err := svc.Create(context.Background(), "user-1", &dto.CreateCircleRequest{Name: "Go", OrgID: strPtr("org-x")})

	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestCircleService_Get_PendingOnlyForLead(t *testing.T) {
	members := []models.CircleMember{
		{UserID: "lead", Lead: true, Accepted: boolPtr(true)},
		{UserID: "member", Accepted: boolPtr(true)},
		{UserID: "applicant"},
	}

	svc, repos, _, _ := newTestCircleService(time.Now())
	repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
	repos.circles.On("ListMembers", mock.Anything, "circle-1").Return(members, nil)

	asLead, err := svc.Get(context.Background(), "circle-1", "lead")
	require.NoError(t, err)
	assert.True(t, asLead.IsLead)
	assert.Len(t, asLead.Members, 2)
	assert.Len(t, asLead.PendingRequests, 1)

	asMember, err := svc.Get(context.Background(), "circle-1", "member")
	require.NoError(t, err)
	assert.True(t, asMember.IsMember)
	assert.False(t, asMember.IsLead)
	assert.Empty(t, asMember.PendingRequests)

	asApplicant, err := svc.Get(context.Background(), "circle-1", "applicant")
	require.NoError(t, err)
	assert.False(t, asApplicant.IsMember)
}

func TestCircleService_Join(t *testing.T) {
	t.Run("files a pending request", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(nil, apperrors.ErrNotCircleMember)
		repos.circles.On("CountAccepted", mock.Anything, "circle-1").Return(2, nil)
		repos.circles.On("AddMember", mock.Anything, "circle-1", "user-2", false, (*bool)(nil)).Return(nil)

		require.NoError(t, svc.Join(context.Background(), "circle-1", "user-2"))
		repos.assertExpectations(t)
	})

	t.Run("already a member", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2"}, nil)

		err := svc.Join(context.Background(), "circle-1", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyCircleMember)
	})

	t.Run("full", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(nil, apperrors.ErrNotCircleMember)
		repos.circles.On("CountAccepted", mock.Anything, "circle-1").Return(3, nil)

		err := svc.Join(context.Background(), "circle-1", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrCircleFull)
		repos.circles.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing circle", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "nope").Return(nil, apperrors.ErrCircleNotFound)

		err := svc.Join(context.Background(), "nope", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrCircleNotFound)
	})
}

func TestCircleService_RespondToRequest(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	t.Run("accept", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2"}, nil)
		repos.circles.On("CountAccepted", mock.Anything, "circle-1").Return(1, nil)
		repos.circles.On("AcceptMember", mock.Anything, "circle-1", "user-2", now).Return(nil)

		require.NoError(t, svc.RespondToRequest(context.Background(), "circle-1", "lead", "user-2", true))
		repos.assertExpectations(t)
	})

	t.Run("reject removes the request", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2"}, nil)
		repos.circles.On("RemoveMember", mock.Anything, "circle-1", "user-2").Return(nil)

		require.NoError(t, svc.RespondToRequest(context.Background(), "circle-1", "lead", "user-2", false))
		repos.circles.AssertNotCalled(t, "CountAccepted", mock.Anything, mock.Anything)
	})

	t.Run("only the lead", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		err := svc.RespondToRequest(context.Background(), "circle-1", "someone", "user-2", true)
		assert.ErrorIs(t, err, apperrors.ErrNotCircleLead)
	})

	t.Run("no such request", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(nil, apperrors.ErrNotCircleMember)

		err := svc.RespondToRequest(context.Background(), "circle-1", "lead", "user-2", true)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})

	t.Run("already accepted", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2", Accepted: boolPtr(true)}, nil)

		err := svc.RespondToRequest(context.Background(), "circle-1", "lead", "user-2", true)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyCircleMember)
	})

	t.Run("full on accept", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2"}, nil)
		repos.circles.On("CountAccepted", mock.Anything, "circle-1").Return(3, nil)

		err := svc.RespondToRequest(context.Background(), "circle-1", "lead", "user-2", true)
		assert.ErrorIs(t, err, apperrors.ErrCircleFull)
	})
}

func TestCircleService_Leave(t *testing.T) {
	t.Run("member leaves", func(t *testing.T) {
		svc, repos, _, pub := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2", Accepted: boolPtr(true)}, nil)
		repos.circles.On("RemoveMember", mock.Anything, "circle-1", "user-2").Return(nil)

		require.NoError(t, svc.Leave(context.Background(), "circle-1", "user-2"))
		repos.circles.AssertNotCalled(t, "ListMembers", mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lead hands over to first accepted member", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "lead").Return(&models.CircleMember{UserID: "lead", Lead: true, Accepted: boolPtr(true)}, nil)
		repos.circles.On("RemoveMember", mock.Anything, "circle-1", "lead").Return(nil)
		repos.circles.On("ListMembers", mock.Anything, "circle-1").Return([]models.CircleMember{
			{UserID: "applicant"},
			{UserID: "veteran", Accepted: boolPtr(true)},
			{UserID: "newcomer", Accepted: boolPtr(true)},
		}, nil)
		repos.circles.On("SetMemberLead", mock.Anything, "circle-1", "veteran", true).Return(nil)
		repos.circles.On("SetLead", mock.Anything, "circle-1", strPtr("veteran")).Return(nil)

		require.NoError(t, svc.Leave(context.Background(), "circle-1", "lead"))
		repos.assertExpectations(t)
		repos.circles.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("last member deletes the circle", func(t *testing.T) {
		svc, repos, _, pub := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "lead").Return(&models.CircleMember{UserID: "lead", Lead: true, Accepted: boolPtr(true)}, nil)
		repos.circles.On("RemoveMember", mock.Anything, "circle-1", "lead").Return(nil)
		repos.circles.On("ListMembers", mock.Anything, "circle-1").Return([]models.CircleMember{{UserID: "applicant"}}, nil)
		repos.circles.On("Delete", mock.Anything, "circle-1").Return(nil)
		pub.On("Publish", mock.Anything, eventbus.SubjectCountsChanged, eventbus.CountsChanged{Reason: "circle.deleted"}).Return(nil)

		require.NoError(t, svc.Leave(context.Background(), "circle-1", "lead"))
		repos.assertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("not a member", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "stranger").Return(nil, apperrors.ErrNotCircleMember)

		err := svc.Leave(context.Background(), "circle-1", "stranger")
		assert.ErrorIs(t, err, apperrors.ErrNotCircleMember)
	})
}

func TestCircleService_TransferLead(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2", Accepted: boolPtr(true)}, nil)
		repos.circles.On("SetMemberLead", mock.Anything, "circle-1", "lead", false).Return(nil)
		repos.circles.On("SetMemberLead", mock.Anything, "circle-1", "user-2", true).Return(nil)
		repos.circles.On("SetLead", mock.Anything, "circle-1", strPtr("user-2")).Return(nil)

		require.NoError(t, svc.TransferLead(context.Background(), "circle-1", "lead", "user-2"))
		repos.assertExpectations(t)
	})

	t.Run("to self", func(t *testing.T) {
		svc, _, _, _ := newTestCircleService(time.Now())
		err := svc.TransferLead(context.Background(), "circle-1", "lead", "lead")
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("pending member", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{UserID: "user-2"}, nil)

		err := svc.TransferLead(context.Background(), "circle-1", "lead", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("not the lead", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Now())
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		err := svc.TransferLead(context.Background(), "circle-1", "user-3", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrNotCircleLead)
	})
}

func TestCircleService_ScheduleMeeting(t *testing.T) {
	// Monday June 2 2025, 09:00 in Kolkata
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, kolkata)

	t.Run("success", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		meetTime := now.Add(48 * time.Hour)
		weekStart := time.Date(2025, 6, 2, 0, 0, 0, 0, kolkata)

		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.meetings.On("MeetTimesBetween", mock.Anything, "circle-1",
			mock.MatchedBy(func(from time.Time) bool { return from.Equal(weekStart) }),
			mock.MatchedBy(func(to time.Time) bool { return to.Equal(weekStart.AddDate(0, 0, 7)) })).
			Return([]time.Time{now.Add(24 * time.Hour)}, nil)
		repos.meetings.On("Create", mock.Anything, mock.MatchedBy(func(m *models.CircleMeeting) bool {
			return m.CircleID == "circle-1" && m.MeetTime.Equal(meetTime) && m.Title == "Week 1"
		})).Return(nil)

		meeting, err := svc.ScheduleMeeting(context.Background(), "circle-1", "lead", &dto.ScheduleMeetingRequest{
			Title: " Week 1 ", MeetTime: meetTime,
		})

		require.NoError(t, err)
		assert.Equal(t, "lead", *meeting.CreatedBy)
		repos.assertExpectations(t)
	})

	t.Run("in the past", func(t *testing.T) {
		svc, _, tx, _ := newTestCircleService(now)

		_, err := svc.ScheduleMeeting(context.Background(), "circle-1", "lead", &dto.ScheduleMeetingRequest{
			Title: "Late", MeetTime: now.Add(-time.Minute),
		})

		assert.ErrorIs(t, err, apperrors.ErrMeetingInPast)
		assert.Zero(t, tx.committed+tx.rolledBack)
	})

	t.Run("weekly limit", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.meetings.On("MeetTimesBetween", mock.Anything, "circle-1", mock.Anything, mock.Anything).
			Return([]time.Time{now.Add(24 * time.Hour), now.Add(48 * time.Hour)}, nil)

		_, err := svc.ScheduleMeeting(context.Background(), "circle-1", "lead", &dto.ScheduleMeetingRequest{
			Title: "Third", MeetTime: now.Add(96 * time.Hour),
		})

		assert.ErrorIs(t, err, apperrors.ErrWeeklyMeetingLimit)
		repos.meetings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("not the lead", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(now)
		repos.circles.On("GetForUpdate", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		_, err := svc.ScheduleMeeting(context.Background(), "circle-1", "member", &dto.ScheduleMeetingRequest{
			Title: "Mine", MeetTime: now.Add(time.Hour),
		})
		assert.ErrorIs(t, err, apperrors.ErrNotCircleLead)
	})
}

func TestCircleService_Attend(t *testing.T) {
	meetTime := time.Date(2025, 6, 4, 18, 0, 0, 0, kolkata)
	meeting := &models.CircleMeeting{ID: "meet-1", CircleID: "circle-1", MeetTime: meetTime}

	t.Run("on the day", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Date(2025, 6, 4, 8, 0, 0, 0, kolkata))
		repos.meetings.On("GetByID", mock.Anything, "meet-1").Return(meeting, nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{Accepted: boolPtr(true)}, nil)
		repos.meetings.On("AddAttendee", mock.Anything, "meet-1", "user-2").Return(nil)

		require.NoError(t, svc.Attend(context.Background(), "meet-1", "user-2"))
	})

	t.Run("wrong day", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(time.Date(2025, 6, 3, 23, 0, 0, 0, kolkata))
		repos.meetings.On("GetByID", mock.Anything, "meet-1").Return(meeting, nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{Accepted: boolPtr(true)}, nil)

		err := svc.Attend(context.Background(), "meet-1", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrMeetingNotToday)
	})

	t.Run("pending member", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(meetTime)
		repos.meetings.On("GetByID", mock.Anything, "meet-1").Return(meeting, nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{}, nil)

		err := svc.Attend(context.Background(), "meet-1", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrNotCircleMember)
	})

	t.Run("already attending", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(meetTime)
		repos.meetings.On("GetByID", mock.Anything, "meet-1").Return(meeting, nil)
		repos.circles.On("GetMember", mock.Anything, "circle-1", "user-2").Return(&models.CircleMember{Accepted: boolPtr(true)}, nil)
		repos.meetings.On("AddAttendee", mock.Anything, "meet-1", "user-2").Return(apperrors.NewConflictError("already marked as attending"))

		err := svc.Attend(context.Background(), "meet-1", "user-2")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestCircleService_SubmitReport(t *testing.T) {
	meetTime := time.Date(2025, 6, 4, 18, 0, 0, 0, kolkata)
	after := meetTime.Add(2 * time.Hour)
	report := "We paired on goroutines and channels for two hours."

	newMeeting := func() *models.CircleMeeting {
		return &models.CircleMeeting{ID: "meet-1", CircleID: "circle-1", MeetTime: meetTime}
	}

	t.Run("files pending karma for attendees", func(t *testing.T) {
		svc, repos, tx, _ := newTestCircleService(after)
		repos.meetings.On("GetForUpdate", mock.Anything, "meet-1").Return(newMeeting(), nil)
		repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.meetings.On("SubmitReport", mock.Anything, "meet-1", report).Return(nil)
		repos.tasks.On("GetByHashtag", mock.Anything, "#lcmeetreport").Return(&models.Task{ID: "task-lc", Karma: 5, Active: true}, nil)
		repos.meetings.On("ListAttendeeIDs", mock.Anything, "meet-1").Return([]string{"lead", "user-2"}, nil)
		repos.karma.On("Create", mock.Anything, mock.MatchedBy(func(a *models.KarmaActivity) bool {
			return a.TaskID == "task-lc" && a.Karma == 5 && a.Pending()
		})).Return(nil).Twice()

		require.NoError(t, svc.SubmitReport(context.Background(), "meet-1", "lead", report))
		assert.Equal(t, 1, tx.committed)
		repos.assertExpectations(t)
	})

	t.Run("missing task still closes the meeting", func(t *testing.T) {
		svc, repos, tx, _ := newTestCircleService(after)
		repos.meetings.On("GetForUpdate", mock.Anything, "meet-1").Return(newMeeting(), nil)
		repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)
		repos.meetings.On("SubmitReport", mock.Anything, "meet-1", report).Return(nil)
		repos.tasks.On("GetByHashtag", mock.Anything, "#lcmeetreport").Return(nil, apperrors.ErrTaskNotFound)

		require.NoError(t, svc.SubmitReport(context.Background(), "meet-1", "lead", report))
		assert.Equal(t, 1, tx.committed)
		repos.meetings.AssertNotCalled(t, "ListAttendeeIDs", mock.Anything, mock.Anything)
	})

	t.Run("already submitted", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(after)
		m := newMeeting()
		m.ReportSubmitted = true
		repos.meetings.On("GetForUpdate", mock.Anything, "meet-1").Return(m, nil)
		repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		err := svc.SubmitReport(context.Background(), "meet-1", "lead", report)
		assert.ErrorIs(t, err, apperrors.ErrReportAlreadySubmited)
	})

	t.Run("before the meeting", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(meetTime.Add(-time.Hour))
		repos.meetings.On("GetForUpdate", mock.Anything, "meet-1").Return(newMeeting(), nil)
		repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		err := svc.SubmitReport(context.Background(), "meet-1", "lead", report)
		assert.ErrorIs(t, err, apperrors.ErrMeetingNotStarted)
	})

	t.Run("not the lead", func(t *testing.T) {
		svc, repos, _, _ := newTestCircleService(after)
		repos.meetings.On("GetForUpdate", mock.Anything, "meet-1").Return(newMeeting(), nil)
		repos.circles.On("GetByID", mock.Anything, "circle-1").Return(circleLedBy("lead"), nil)

		err := svc.SubmitReport(context.Background(), "meet-1", "user-2", report)
		assert.ErrorIs(t, err, apperrors.ErrNotCircleLead)
	})
}
