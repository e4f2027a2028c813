package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/testutil"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

func TestMeetingService_Create(t *testing.T) {
	meetings := testutil.NewMemMeetingRepository()
	notifier := &testutil.RecordingNotifier{}
	svc := services.NewMeetingService(meetings, notifier)

	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meeting, err := svc.Create(context.Background(), start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, meeting.Code, domain.MeetingCodeLength)
	assert.Equal(t, start, meeting.StartTime)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "meeting_created", events[0].Kind)
}

func TestMeetingService_CreateEndBeforeStart(t *testing.T) {
	svc := services.NewMeetingService(testutil.NewMemMeetingRepository(), nil)

	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, quorum_errors.ErrInvalidInput)

	_, err = svc.Create(context.Background(), start, start)
	assert.ErrorIs(t, err, quorum_errors.ErrInvalidInput)
}

func TestMeetingService_CreateClampsEndToStartDay(t *testing.T) {
	svc := services.NewMeetingService(testutil.NewMemMeetingRepository(), nil)

	start := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	meeting, err := svc.Create(context.Background(), start, start.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC), meeting.EndTime)
}

func TestMeetingService_Delete(t *testing.T) {
	meetings := testutil.NewMemMeetingRepository()
	notifier := &testutil.RecordingNotifier{}
	svc := services.NewMeetingService(meetings, notifier)

	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	meeting, err := svc.Create(context.Background(), start, start.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), meeting.ID))
	_, err = svc.Get(context.Background(), meeting.ID)
	assert.ErrorIs(t, err, quorum_errors.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), meeting.ID), quorum_errors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), quorum_errors.ErrNotFound)
}
