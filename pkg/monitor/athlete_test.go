package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	_ "liyu1981.xyz/glucose-watch-service/pkg/testing"
)

func TestView_NoAthlete(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, _ := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{})
	defer ctrl.Finish()

	parent := seedUser(t, monitorObj, "mum@example.com", models.RoleParent, false)

	view, err := monitorObj.Athlete.View(context.Background(), parent.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, view.Athlete)
	assert.Nil(t, view.Glucose)
	assert.Nil(t, view.Status)
	assert.Empty(t, view.GlucoseHistory)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"athlete":null,"glucose":null,"status":null,"glucoseHistory":[],"unreadMessages":0}`, string(raw))
}

func TestView_AthleteWithoutReadings(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, _ := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{})
	defer ctrl.Finish()

	parent := seedUser(t, monitorObj, "mum@example.com", models.RoleParent, false)
	athlete := seedUser(t, monitorObj, "kid@example.com", models.RoleAthlete, true)

	view, err := monitorObj.Athlete.View(context.Background(), parent.ID, 10)
	require.NoError(t, err)
	require.NotNil(t, view.Athlete)
	assert.Equal(t, athlete.ID, view.Athlete.ID)
	assert.Nil(t, view.Glucose)
	assert.Nil(t, view.Status)
	assert.NotNil(t, view.GlucoseHistory)
	assert.Empty(t, view.GlucoseHistory)
}

func TestView_HistoryExcludesLatest(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, _ := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{})
	defer ctrl.Finish()

	ctx := context.Background()
	parent := seedUser(t, monitorObj, "mum@example.com", models.RoleParent, false)
	athlete := seedUser(t, monitorObj, "kid@example.com", models.RoleAthlete, true)

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range 5 {
		ingest(t, monitorObj, athlete.ID, base.Add(time.Duration(i)*5*time.Minute), float64(100+i))
	}
	_, err := monitorObj.Message.Send(ctx, athlete.ID, parent.ID, "hi")
	require.NoError(t, err)

	view, err := monitorObj.Athlete.View(ctx, parent.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, view.Glucose)
	assert.Equal(t, 104.0, view.Glucose.Value)
	require.NotNil(t, view.Status)
	assert.Equal(t, view.Glucose.ID, view.Status.ReadingID)
	require.Len(t, view.GlucoseHistory, 3)
	assert.Equal(t, 103.0, view.GlucoseHistory[0].Value)
	assert.Equal(t, 101.0, view.GlucoseHistory[2].Value)
	assert.Equal(t, int64(1), view.UnreadMessages)

	// unread count belongs to the caller
	other, err := monitorObj.Athlete.View(ctx, athlete.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.UnreadMessages)
}

func TestView_WithMockedServices(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, mocked := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{User: true, Reading: true, Message: true, Status: true})
	defer ctrl.Finish()

	ctx := context.Background()
	athlete := &models.User{ID: 9, IsAthlete: true, Role: models.RoleAthlete}

	mocked.Message.EXPECT().CountUnread(gomock.Any(), gomock.Eq(uint(3))).Return(int64(2), nil).Times(1)
	mocked.User.EXPECT().GetAthlete(gomock.Any()).Return(athlete, nil).Times(1)
	mocked.Reading.EXPECT().
		ListReadings(gomock.Any(), gomock.Eq(uint(9)), gomock.Eq(DefaultHistoryLimit+1), gomock.Eq(0)).
		Return([]models.GlucoseReading{{ID: 5, UserID: 9, Value: 60}}, nil).
		Times(1)
	// status not preloaded, so the view asks for it
	mocked.Status.EXPECT().StatusFor(gomock.Any(), gomock.Eq(uint(5))).
		Return(&models.Status{ID: 7, ReadingID: 5, Classification: models.ClassificationLow}, nil).
		Times(1)

	view, err := monitorObj.Athlete.View(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.UnreadMessages)
	assert.Equal(t, models.ClassificationLow, view.Status.Classification)
	assert.Empty(t, view.GlucoseHistory)
}

func TestView_PropagatesErrors(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, mocked := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{User: true, Message: true})
	defer ctrl.Finish()

	boom := errors.New("db gone")
	mocked.Message.EXPECT().CountUnread(gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(1)
	mocked.User.EXPECT().GetAthlete(gomock.Any()).Return(nil, boom).Times(1)

	_, err := monitorObj.Athlete.View(context.Background(), 1, 0)
	assert.ErrorIs(t, err, boom)
}

func TestCurrentStatus(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, monitorObj, _ := GetMockMonitorWithMemorySqliteDialector(t, UseMocks{})
	defer ctrl.Finish()

	ctx := context.Background()

	empty, err := monitorObj.Athlete.CurrentStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Status)
	assert.Nil(t, empty.GlucoseReading)

	athlete := seedUser(t, monitorObj, "kid@example.com", models.RoleAthlete, true)
	ingest(t, monitorObj, athlete.ID, time.Now().Add(-time.Minute), 190)

	current, err := monitorObj.Athlete.CurrentStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, current.Status)
	assert.Equal(t, models.ClassificationHigh, current.Status.Classification)
	assert.Equal(t, 190.0, current.GlucoseReading.Value)
}
