package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/handler"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/testutil"
)

const testPepper = "test-pepper"

type apiFixture struct {
	router   *gin.Engine
	meetings *testutil.MemMeetingRepository
	polls    *testutil.MemPollRepository
	votes    *testutil.MemVoteRepository
	creds    *testutil.MemCredentialRepository

	meeting domain.Meeting
	poll    domain.Poll
	now     time.Time
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	f := &apiFixture{
		meetings: testutil.NewMemMeetingRepository(),
		polls:    testutil.NewMemPollRepository(),
		creds:    testutil.NewMemCredentialRepository(),
		now:      now,
	}
	f.votes = testutil.NewMemVoteRepository(f.polls)

	credSvc := services.NewCredentialService(f.meetings, f.creds, testPepper).WithClock(clock)
	checkinSvc := services.NewCheckinService(f.meetings, credSvc, nil).WithClock(clock)
	voteSvc := services.NewVoteService(f.meetings, f.polls, f.votes, credSvc, nil).WithClock(clock)
	aggSvc := services.NewAggregatorService(f.meetings, f.polls, f.votes, f.creds, credSvc).WithClock(clock)

	checkinHandler := handler.NewCheckinHandler(checkinSvc)
	voteHandler := handler.NewVoteHandler(voteSvc, aggSvc)

	f.router = gin.New()
	f.router.POST("/meetings/:id/checkin", checkinHandler.CheckIn)
	f.router.POST("/meetings/:id/polls/:pollID/vote", voteHandler.CastVote)
	f.router.POST("/meetings/:id/status", voteHandler.SelfStatus)

	f.meeting = domain.Meeting{
		ID:        uuid.New(),
		Code:      "BAZODEKU",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
	require.NoError(t, f.meetings.Create(context.Background(), &f.meeting))

	f.poll = domain.Poll{ID: uuid.New(), MeetingID: f.meeting.ID, Name: "Budget approval"}
	require.NoError(t, f.polls.Create(context.Background(), &f.poll))
	return f
}

func (f *apiFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
		Code    string         `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success, "expected success response, got %s", w.Body.String())
	return body.Data
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body.Code
}

func TestCheckinEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.post(t, "/meetings/"+f.meeting.ID.String()+"/checkin", gin.H{"code": "bazodeku"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	credential := data["credential"].(string)
	assert.NotEmpty(t, credential)
	assert.Equal(t, false, data["reused"])

	// Re-confirming with the issued credential reports reuse.
	w = f.post(t, "/meetings/"+f.meeting.ID.String()+"/checkin", gin.H{"code": "BAZODEKU", "credential": credential})
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w)
	assert.Equal(t, credential, data["credential"])
	assert.Equal(t, true, data["reused"])
}

func TestCheckinEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"wrong code", "/meetings/" + f.meeting.ID.String() + "/checkin", gin.H{"code": "WRONGCOD"}, http.StatusBadRequest, "INVALID_CODE"},
		{"missing code", "/meetings/" + f.meeting.ID.String() + "/checkin", gin.H{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown meeting", "/meetings/" + uuid.NewString() + "/checkin", gin.H{"code": "BAZODEKU"}, http.StatusNotFound, "NOT_FOUND"},
		{"malformed meeting id", "/meetings/not-a-uuid/checkin", gin.H{"code": "BAZODEKU"}, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post(t, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeErrorCode(t, w))
		})
	}
}
