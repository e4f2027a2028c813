package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/testutil"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type checkinFixture struct {
	meetings *testutil.MemMeetingRepository
	creds    *testutil.MemCredentialRepository
	notifier *testutil.RecordingNotifier
	svc      *services.CheckinService
	now      time.Time
}

func newCheckinFixture(t *testing.T) *checkinFixture {
	t.Helper()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meetings := testutil.NewMemMeetingRepository()
	creds := testutil.NewMemCredentialRepository()
	notifier := &testutil.RecordingNotifier{}
	credSvc := services.NewCredentialService(meetings, creds, testPepper).WithClock(fixedClock(now))
	svc := services.NewCheckinService(meetings, credSvc, notifier).WithClock(fixedClock(now))
	return &checkinFixture{meetings: meetings, creds: creds, notifier: notifier, svc: svc, now: now}
}

func TestCheckinService_FirstCheckin(t *testing.T) {
	f := newCheckinFixture(t)
	meeting := seedMeeting(t, f.meetings, f.now.Add(-time.Hour), f.now.Add(time.Hour))

	raw, reused, err := f.svc.CheckIn(context.Background(), meeting.ID, meeting.Code, "")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.False(t, reused)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "checkin", events[0].Kind)
	assert.Equal(t, meeting.ID, events[0].MeetingID)
}

func TestCheckinService_CodeIsCaseInsensitive(t *testing.T) {
	f := newCheckinFixture(t)
	meeting := seedMeeting(t, f.meetings, f.now.Add(-time.Hour), f.now.Add(time.Hour))

	_, _, err := f.svc.CheckIn(context.Background(), meeting.ID, strings.ToLower(meeting.Code), "")
	assert.NoError(t, err)
}

func TestCheckinService_WrongCode(t *testing.T) {
	f := newCheckinFixture(t)
	meeting := seedMeeting(t, f.meetings, f.now.Add(-time.Hour), f.now.Add(time.Hour))

	_, _, err := f.svc.CheckIn(context.Background(), meeting.ID, "WRONGCOD", "")
	assert.ErrorIs(t, err, quorum_errors.ErrInvalidCode)
	assert.Empty(t, f.notifier.Events())
}

func TestCheckinService_OutsideWindow(t *testing.T) {
	f := newCheckinFixture(t)

	// Inside the lead window is fine.
	early := seedMeeting(t, f.meetings, f.now.Add(10*time.Minute), f.now.Add(2*time.Hour))
	_, _, err := f.svc.CheckIn(context.Background(), early.ID, early.Code, "")
	assert.NoError(t, err)

	// Beyond the lead window is not, even with the right code.
	tooEarly := seedMeeting(t, f.meetings, f.now.Add(domain.CheckinLeadTime+time.Minute), f.now.Add(3*time.Hour))
	_, _, err = f.svc.CheckIn(context.Background(), tooEarly.ID, tooEarly.Code, "")
	assert.ErrorIs(t, err, quorum_errors.ErrMeetingClosed)

	ended := seedMeeting(t, f.meetings, f.now.Add(-3*time.Hour), f.now.Add(-time.Hour))
	_, _, err = f.svc.CheckIn(context.Background(), ended.ID, ended.Code, "")
	assert.ErrorIs(t, err, quorum_errors.ErrMeetingClosed)
}

func TestCheckinService_ReconfirmIsIdempotent(t *testing.T) {
	f := newCheckinFixture(t)
	meeting := seedMeeting(t, f.meetings, f.now.Add(-time.Hour), f.now.Add(time.Hour))

	raw, _, err := f.svc.CheckIn(context.Background(), meeting.ID, meeting.Code, "")
	require.NoError(t, err)

	// Same credential presented again: returned unchanged, no second
	// attendance row, no second feed event.
	again, reused, err := f.svc.CheckIn(context.Background(), meeting.ID, meeting.Code, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
	assert.True(t, reused)

	count, err := f.creds.CountByMeeting(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, f.notifier.Events(), 1)
}

func TestCheckinService_StaleCredentialGetsFreshOne(t *testing.T) {
	f := newCheckinFixture(t)
	meeting := seedMeeting(t, f.meetings, f.now.Add(-time.Hour), f.now.Add(time.Hour))

	// A credential from some other meeting does not verify here, so the
	// check-in falls through to minting a new one.
	raw, reused, err := f.svc.CheckIn(context.Background(), meeting.ID, meeting.Code, "stale-credential")
	require.NoError(t, err)
	assert.False(t, reused)
	assert.NotEqual(t, "stale-credential", raw)
}
