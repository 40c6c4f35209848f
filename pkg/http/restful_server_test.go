package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
)

func TestHealthCheck(t *testing.T) {
	rs := setupTestServer(t)

	w := doRequest(rs, "GET", "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegisterGrantsAdminToFirstParentOnly(t *testing.T) {
	rs := setupTestServer(t)

	w := doRequest(rs, "POST", "/api/auth/register", "", RegisterRequest{Name: "A", Email: "a@example.com", Password: testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[authResponse](t, w)
	assert.NotEmpty(t, first.Token)
	assert.True(t, first.User.IsAdmin)
	assert.Equal(t, models.RoleParent, first.User.Role)
	assert.NotContains(t, w.Body.String(), "passwordHash")
	assert.Contains(t, w.Header().Get("Set-Cookie"), tokenCookieName+"=")

	w = doRequest(rs, "POST", "/api/auth/register", "", RegisterRequest{Name: "B", Email: "b@example.com", Password: testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[authResponse](t, w)
	assert.False(t, second.User.IsAdmin)

	w = doRequest(rs, "POST", "/api/auth/register", "", RegisterRequest{Name: "A2", Email: "A@example.com", Password: testPassword})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, w.Body.String())
}

func TestRegister_EdgeCases(t *testing.T) {
	rs := setupTestServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"missing email", map[string]any{"password": testPassword}},
		{"malformed email", RegisterRequest{Email: "not-an-email", Password: testPassword}},
		{"short password", RegisterRequest{Email: "c@example.com", Password: "short"}},
		{"missing password", map[string]any{"email": "c@example.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(rs, "POST", "/api/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	var count int64
	rs.Monitor.Db.Conn.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestLoginAndMe(t *testing.T) {
	rs := setupTestServer(t)
	parent, _ := seedUser(t, rs, models.User{Email: "mom@example.com"})

	w := doRequest(rs, "POST", "/api/auth/login", "", LoginRequest{Email: "MOM@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[authResponse](t, w)
	assert.Equal(t, parent.ID, login.User.ID)

	w = doRequest(rs, "GET", "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mom@example.com", decode[models.User](t, w).Email)

	// the cookie set at login works as well
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: login.Token})
	cw := httptest.NewRecorder()
	rs.Server.ServeHTTP(cw, req)
	assert.Equal(t, http.StatusOK, cw.Code)

	w = doRequest(rs, "POST", "/api/auth/login", "", LoginRequest{Email: "mom@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, w.Body.String())

	w = doRequest(rs, "POST", "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimitedPerClient(t *testing.T) {
	rs := setupTestServer(t)
	rs.RateLimiterStore = monitor.NewRateLimiterStore(rate.Limit(0), 2)
	seedUser(t, rs, models.User{Email: "mom@example.com"})

	body := LoginRequest{Email: "mom@example.com", Password: "wrong-password"}
	assert.Equal(t, http.StatusUnauthorized, doRequest(rs, "POST", "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(rs, "POST", "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(rs, "POST", "/api/auth/login", "", body).Code)

	// other routes are not limited
	assert.Equal(t, http.StatusOK, doRequest(rs, "GET", "/healthz", "", nil).Code)
}

func TestUnauthenticatedRequestsGetNoData(t *testing.T) {
	rs := setupTestServer(t)
	_, _, athlete, _ := seedFamily(t, rs)
	_, err := rs.Monitor.Reading.IngestReading(context.Background(), athlete.ID, &models.GlucoseReading{RecordedAt: time.Now(), Value: 100})
	require.NoError(t, err)

	for _, path := range []string{"/api/glucose", "/api/status", "/api/athlete", "/api/messages", "/api/auth/me", "/api/notifications/stream"} {
		w := doRequest(rs, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"authentication required"}`, w.Body.String(), path)

		w = doRequest(rs, "GET", path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.NotContains(t, w.Body.String(), "value")
	}

	// a token for a user that no longer resolves
	ghost := &models.User{ID: 999, Email: "ghost@example.com", Role: models.RoleParent}
	token, err := rs.Signer.Issue(ghost)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(rs, "GET", "/api/glucose", token, nil).Code)
}

func TestGetGlucose(t *testing.T) {
	rs := setupTestServer(t)
	_, parentToken, athlete, _ := seedFamily(t, rs)

	w := doRequest(rs, "GET", "/api/glucose", parentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range 25 {
		_, err := rs.Monitor.Reading.IngestReading(context.Background(), athlete.ID, &models.GlucoseReading{
			RecordedAt: base.Add(time.Duration(i) * 5 * time.Minute),
			Value:      float64(60 + i*10),
		})
		require.NoError(t, err)
	}

	readings := decode[[]models.GlucoseReading](t, doRequest(rs, "GET", "/api/glucose", parentToken, nil))
	require.Len(t, readings, monitor.DefaultReadingsLimit)
	assert.True(t, readings[0].RecordedAt.After(readings[1].RecordedAt))
	require.NotNil(t, readings[0].Status)
	assert.Equal(t, models.ClassificationHigh, readings[0].Status.Classification)

	readings = decode[[]models.GlucoseReading](t, doRequest(rs, "GET", "/api/glucose?limit=3", parentToken, nil))
	assert.Len(t, readings, 3)

	for _, raw := range []string{"0", "-4", "abc"} {
		readings = decode[[]models.GlucoseReading](t, doRequest(rs, "GET", "/api/glucose?limit="+raw, parentToken, nil))
		assert.Len(t, readings, monitor.DefaultReadingsLimit, raw)
	}

	readings = decode[[]models.GlucoseReading](t, doRequest(rs, "GET", "/api/glucose?limit=100000", parentToken, nil))
	assert.Len(t, readings, 25)
}

func TestPostGlucose(t *testing.T) {
	rs := setupTestServer(t)
	_, parentToken, athlete, athleteToken := seedFamily(t, rs)
	_, otherToken := seedUser(t, rs, models.User{Email: "dad@example.com"})

	sub, err := rs.Monitor.Bus.Subscribe("dexcom-data-updated")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	body := map[string]any{"value": 55, "recordedAt": at.Format(time.RFC3339)}

	w := doRequest(rs, "POST", "/api/glucose", athleteToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reading := decode[models.GlucoseReading](t, w)
	assert.Equal(t, athlete.ID, reading.UserID)
	assert.Equal(t, models.ReadingSourceManual, reading.Source)
	require.NotNil(t, reading.Status)
	assert.Equal(t, models.ClassificationLow, reading.Status.Classification)

	select {
	case ev := <-sub.C():
		assert.Equal(t, models.ClassificationLow, ev.Payload.(monitor.GlucoseUpdate).Status)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	w = doRequest(rs, "POST", "/api/glucose", parentToken, body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"duplicate":true}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, doRequest(rs, "POST", "/api/glucose", otherToken, body).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(rs, "POST", "/api/glucose", athleteToken, map[string]any{"value": -3}).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(rs, "POST", "/api/glucose", athleteToken, map[string]any{}).Code)

	// recordedAt defaults to now
	w = doRequest(rs, "POST", "/api/glucose", athleteToken, map[string]any{"value": 120})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.WithinDuration(t, time.Now(), decode[models.GlucoseReading](t, w).RecordedAt, 5*time.Second)
}

func TestPostGlucose_RejectsFutureTimestamp(t *testing.T) {
	rs := setupTestServer(t)
	_, _, athlete, athleteToken := seedFamily(t, rs)

	future := time.Now().Add(365 * 24 * time.Hour).UTC()
	w := doRequest(rs, "POST", "/api/glucose", athleteToken, map[string]any{"value": 100, "recordedAt": future.Format(time.RFC3339)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"recordedAt cannot be in the future"}`, w.Body.String())

	latest, err := rs.Monitor.Reading.LatestReading(context.Background(), athlete.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	// a small clock skew is tolerated
	skewed := time.Now().Add(time.Minute).UTC()
	w = doRequest(rs, "POST", "/api/glucose", athleteToken, map[string]any{"value": 100, "recordedAt": skewed.Format(time.RFC3339)})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGetStatus(t *testing.T) {
	rs := setupTestServer(t)
	_, parentToken, athlete, _ := seedFamily(t, rs)

	w := doRequest(rs, "GET", "/api/status", parentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":null,"glucoseReading":null}`, w.Body.String())

	_, err := rs.Monitor.Reading.IngestReading(context.Background(), athlete.ID, &models.GlucoseReading{RecordedAt: time.Now(), Value: 250})
	require.NoError(t, err)

	current := decode[models.CurrentStatus](t, doRequest(rs, "GET", "/api/status", parentToken, nil))
	require.NotNil(t, current.Status)
	require.NotNil(t, current.GlucoseReading)
	assert.Equal(t, models.ClassificationHigh, current.Status.Classification)
	assert.Equal(t, 250.0, current.GlucoseReading.Value)
}

func TestAcknowledgeStatus(t *testing.T) {
	rs := setupTestServer(t)
	parent, parentToken, athlete, athleteToken := seedFamily(t, rs)

	res, err := rs.Monitor.Reading.IngestReading(context.Background(), athlete.ID, &models.GlucoseReading{RecordedAt: time.Now(), Value: 50})
	require.NoError(t, err)
	path := fmt.Sprintf("/api/status/%d/acknowledge", res.Status.ID)

	assert.Equal(t, http.StatusForbidden, doRequest(rs, "POST", path, athleteToken, nil).Code)

	w := doRequest(rs, "POST", path, parentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.Status](t, w)
	require.NotNil(t, first.AcknowledgedAt)
	require.NotNil(t, first.AcknowledgedByID)
	assert.Equal(t, parent.ID, *first.AcknowledgedByID)

	second := decode[models.Status](t, doRequest(rs, "POST", path, parentToken, nil))
	assert.True(t, first.AcknowledgedAt.Equal(*second.AcknowledgedAt))

	assert.Equal(t, http.StatusNotFound, doRequest(rs, "POST", "/api/status/9999/acknowledge", parentToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(rs, "POST", "/api/status/abc/acknowledge", parentToken, nil).Code)
}

func TestGetAthlete_NoAthlete(t *testing.T) {
	rs := setupTestServer(t)
	_, parentToken := seedUser(t, rs, models.User{Email: "mom@example.com"})

	w := doRequest(rs, "GET", "/api/athlete", parentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"athlete":null,"glucose":null,"status":null,"glucoseHistory":[],"unreadMessages":0}`, w.Body.String())
}

func TestGetAthlete(t *testing.T) {
	rs := setupTestServer(t)
	parent, parentToken, athlete, _ := seedFamily(t, rs)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range 6 {
		_, err := rs.Monitor.Reading.IngestReading(ctx, athlete.ID, &models.GlucoseReading{
			RecordedAt: base.Add(time.Duration(i) * 5 * time.Minute),
			Value:      float64(100 + i),
		})
		require.NoError(t, err)
	}
	_, err := rs.Monitor.Message.Send(ctx, athlete.ID, parent.ID, "hi mom")
	require.NoError(t, err)

	view := decode[models.AthleteView](t, doRequest(rs, "GET", "/api/athlete?limit=3", parentToken, nil))
	require.NotNil(t, view.Athlete)
	assert.Equal(t, athlete.ID, view.Athlete.ID)
	require.NotNil(t, view.Glucose)
	assert.Equal(t, 105.0, view.Glucose.Value)
	require.NotNil(t, view.Status)
	assert.Equal(t, view.Glucose.ID, view.Status.ReadingID)
	require.Len(t, view.GlucoseHistory, 3)
	assert.Equal(t, 104.0, view.GlucoseHistory[0].Value)
	assert.Equal(t, int64(1), view.UnreadMessages)
}

func TestMessages(t *testing.T) {
	rs := setupTestServer(t)
	parent, parentToken, athlete, athleteToken := seedFamily(t, rs)

	w := doRequest(rs, "POST", "/api/messages", parentToken, map[string]any{"receiverId": athlete.ID, "content": "  how are you?  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sent := decode[models.Message](t, w)
	assert.Equal(t, parent.ID, sent.SenderID)
	assert.Equal(t, "how are you?", sent.Content)

	assert.Equal(t, http.StatusNotFound, doRequest(rs, "POST", "/api/messages", parentToken, map[string]any{"receiverId": 999, "content": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(rs, "POST", "/api/messages", parentToken, map[string]any{"receiverId": athlete.ID, "content": "   "}).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(rs, "POST", "/api/messages", parentToken, map[string]any{"content": "x"}).Code)

	listed := decode[[]models.Message](t, doRequest(rs, "GET", "/api/messages", athleteToken, nil))
	require.Len(t, listed, 1)
	assert.Equal(t, sent.ID, listed[0].ID)

	readPath := fmt.Sprintf("/api/messages/%d/read", sent.ID)

	// only the receiver can mark it read
	w = doRequest(rs, "POST", readPath, parentToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"message not found"}`, w.Body.String())

	for range 2 {
		w = doRequest(rs, "POST", readPath, athleteToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	assert.Equal(t, http.StatusNotFound, doRequest(rs, "POST", "/api/messages/9999/read", athleteToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(rs, "POST", "/api/messages/zero/read", athleteToken, nil).Code)

	view := decode[models.AthleteView](t, doRequest(rs, "GET", "/api/athlete", athleteToken, nil))
	assert.Zero(t, view.UnreadMessages)
}
