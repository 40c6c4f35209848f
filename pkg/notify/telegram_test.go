package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
	_ "liyu1981.xyz/glucose-watch-service/pkg/testing"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	failFor map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := c.(tgbotapi.MessageConfig)
	if f.failFor[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func update(status models.Classification, value float64) monitor.GlucoseUpdate {
	return monitor.GlucoseUpdate{
		Type:     monitor.EventTypeGlucoseUpdate,
		Status:   status,
		StatusID: 7,
		Reading: &models.GlucoseReading{
			RecordedAt: time.Date(2025, 3, 1, 8, 5, 0, 0, time.UTC),
			Value:      value,
			Unit:       "mg/dL",
			Trend:      "singleDown",
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 8, 6, 0, 0, time.UTC)
}

func TestFormatAlert(t *testing.T) {
	assert.Equal(t, "⬇️ LOW glucose: 55 mg/dL at 08:05 UTC (trend: singleDown)", FormatAlert(update(models.ClassificationLow, 55)))

	high := update(models.ClassificationHigh, 242.4)
	high.Reading.Trend = ""
	assert.Equal(t, "⬆️ HIGH glucose: 242 mg/dL at 08:05 UTC", FormatAlert(high))
}

func TestNotifierForwardsOnlyAlerts(t *testing.T) {
	var buf common.LockedBuffer
	common.SetTestCaptureLogger(&buf, zapcore.DebugLevel)

	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	notifier := &TelegramNotifier{Sender: sender, ChatIDs: []int64{1, 2, 3}, now: fixedNow}

	bus := events.NewBus(events.Options{})
	defer bus.Close()
	require.NoError(t, notifier.Start(bus))
	defer notifier.Stop()

	bus.Publish(events.TopicDexcomDataUpdated, update(models.ClassificationOK, 110))
	bus.Publish(events.TopicDexcomDataUpdated, monitor.StatusAcknowledged{Type: monitor.EventTypeStatusAcknowledged, StatusID: 7})
	bus.Publish(events.TopicDexcomDataUpdated, update(models.ClassificationLow, 55))

	// the blocked chat does not stop delivery to the others
	assert.Eventually(t, func() bool { return len(sender.messages()) == 2 }, time.Second, 5*time.Millisecond)

	sent := sender.messages()
	assert.Equal(t, int64(1), sent[0].ChatID)
	assert.Equal(t, int64(3), sent[1].ChatID)
	assert.Contains(t, sent[0].Text, "LOW glucose: 55")

	assert.Eventually(t, func() bool {
		logs := buf.String()
		return strings.Contains(logs, "Failed to send alert") && strings.Contains(logs, `"chatId":2`)
	}, time.Second, 5*time.Millisecond)

	notifier.Stop()
	assert.Zero(t, bus.SubscriberCount(events.TopicDexcomDataUpdated))
}


type slowSender struct {
	fakeSender
	delay time.Duration
}

func (s *slowSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	time.Sleep(s.delay)
	return s.fakeSender.Send(c)
}

func TestNotifierSurvivesBackfillBurst(t *testing.T) {
	common.SetTestLoggerNop()

	sender := &slowSender{delay: 2 * time.Millisecond}
	notifier := &TelegramNotifier{Sender: sender, ChatIDs: []int64{1}, now: fixedNow}

	bus := events.NewBus(events.Options{Buffer: 8})
	defer bus.Close()
	require.NoError(t, notifier.Start(bus))
	defer notifier.Stop()

	// a day of backfilled lows, all older than the alert window
	for i := range 288 {
		low := update(models.ClassificationLow, 55)
		low.Reading.RecordedAt = fixedNow().Add(-24*time.Hour + time.Duration(i)*5*time.Minute - time.Hour)
		bus.Publish(events.TopicDexcomDataUpdated, low)
	}
	// recent lows still inside the window
	for range 20 {
		bus.Publish(events.TopicDexcomDataUpdated, update(models.ClassificationLow, 60))
	}
	assert.Equal(t, 1, bus.SubscriberCount(events.TopicDexcomDataUpdated))

	live := update(models.ClassificationLow, 50)
	bus.Publish(events.TopicDexcomDataUpdated, live)

	assert.Eventually(t, func() bool { return len(sender.messages()) == 21 }, 2*time.Second, 10*time.Millisecond)
	sent := sender.messages()
	assert.Contains(t, sent[len(sent)-1].Text, "LOW glucose: 50")
	for _, msg := range sent {
		assert.NotContains(t, msg.Text, "LOW glucose: 55")
	}
}

func TestNotifierSkipsStaleReadings(t *testing.T) {
	common.SetTestLoggerNop()

	sender := &fakeSender{}
	notifier := &TelegramNotifier{Sender: sender, ChatIDs: []int64{1}, MaxAge: 10 * time.Minute, now: fixedNow}

	old := update(models.ClassificationHigh, 250)
	old.Reading.RecordedAt = fixedNow().Add(-11 * time.Minute)
	notifier.Handle(events.Event{Topic: events.TopicDexcomDataUpdated, Payload: old})
	assert.Empty(t, sender.messages())

	notifier.Handle(events.Event{Topic: events.TopicDexcomDataUpdated, Payload: update(models.ClassificationHigh, 250)})
	assert.Len(t, sender.messages(), 1)
}
