package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor/mocks"
)

type UseMocks struct {
	User    bool
	Reading bool
	Status  bool
	Message bool
	Athlete bool
}

type MockServices struct {
	User    *mocks.MockIUser
	Reading *mocks.MockIReading
	Status  *mocks.MockIStatus
	Message *mocks.MockIMessage
	Athlete *mocks.MockIAthlete
}

func GetMockMonitorWithMemorySqliteDialector(t *testing.T, use UseMocks) (
	*gomock.Controller,
	*Monitor,
	*MockServices,
) {
	ctrl := gomock.NewController(t)

	m := &MockServices{
		User:    mocks.NewMockIUser(ctrl),
		Reading: mocks.NewMockIReading(ctrl),
		Status:  mocks.NewMockIStatus(ctrl),
		Message: mocks.NewMockIMessage(ctrl),
		Athlete: mocks.NewMockIAthlete(ctrl),
	}

	dbInstance, err := db.Open(db.UseMemorySqliteDialector())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbInstance.Close() })

	bus := events.NewBus(events.Options{Buffer: 64})
	monitorInstance := &Monitor{Db: *dbInstance, Bus: bus, Thresholds: DefaultThresholds()}

	opts := ServiceOpts{
		User:    monitorInstance.GetIUser(),
		Reading: monitorInstance.GetIReading(),
		Status:  monitorInstance.GetIStatus(),
		Message: monitorInstance.GetIMessage(),
		Athlete: monitorInstance.GetIAthlete(),
	}
	if use.User {
		opts.User = m.User
	}
	if use.Reading {
		opts.Reading = m.Reading
	}
	if use.Status {
		opts.Status = m.Status
	}
	if use.Message {
		opts.Message = m.Message
	}
	if use.Athlete {
		opts.Athlete = m.Athlete
	}
	monitorInstance.WithServices(opts)

	return ctrl, monitorInstance, m
}

// seedUser inserts a user directly, skipping password hashing.
func seedUser(t *testing.T, m *Monitor, email string, role models.Role, athlete bool) *models.User {
	t.Helper()
	user := models.User{Name: email, Email: email, PasswordHash: "x", Role: role, IsAthlete: athlete}
	require.NoError(t, m.Db.Conn.Create(&user).Error)
	return &user
}

func ingest(t *testing.T, m *Monitor, userID uint, at time.Time, value float64) *models.IngestResult {
	t.Helper()
	res, err := m.Reading.IngestReading(context.Background(), userID, &models.GlucoseReading{RecordedAt: at, Value: value})
	require.NoError(t, err)
	return res
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
