package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/glucose-watch-service/pkg/auth"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
	_ "liyu1981.xyz/glucose-watch-service/pkg/testing"
)

const testPassword = "password123"

func setupTestServer(t *testing.T) *RestfulServer {
	return setupTestServerWithBus(t, events.Options{Buffer: 64})
}

func setupTestServerWithBus(t *testing.T, opts events.Options) *RestfulServer {
	t.Helper()
	common.SetTestLoggerNop()
	gin.SetMode(gin.TestMode)

	dbInstance, err := db.Open(db.UseMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbInstance.Close() })

	bus := events.NewBus(opts)
	t.Cleanup(bus.Close)

	rs := &RestfulServer{
		Server:  gin.New(),
		Monitor: monitor.New(*dbInstance, bus, monitor.DefaultThresholds()),
		Signer:  auth.NewSigner("test-secret", time.Hour),
		// default we use no limiter, tests that need one assign rs.RateLimiterStore
	}
	rs.Setup()

	return rs
}

var cheapHashParams = auth.HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// seedUser inserts a user directly and returns it with a valid bearer token.
func seedUser(t *testing.T, rs *RestfulServer, user models.User) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPasswordWith(testPassword, cheapHashParams)
	require.NoError(t, err)
	user.PasswordHash = hash
	if user.Role == "" {
		user.Role = models.RoleParent
	}
	require.NoError(t, rs.Monitor.Db.Conn.Create(&user).Error)

	token, err := rs.Signer.Issue(&user)
	require.NoError(t, err)
	return &user, token
}

func seedFamily(t *testing.T, rs *RestfulServer) (parent *models.User, parentToken string, athlete *models.User, athleteToken string) {
	t.Helper()
	parent, parentToken = seedUser(t, rs, models.User{Name: "Mom", Email: "mom@example.com", IsAdmin: true})
	athlete, athleteToken = seedUser(t, rs, models.User{Name: "Kid", Email: "kid@example.com", Role: models.RoleAthlete, IsAthlete: true})
	return
}

func doRequest(rs *RestfulServer, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	rs.Server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
