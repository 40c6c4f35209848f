package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
)

const DefaultMaxAlertAge = 30 * time.Minute

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier forwards HIGH and LOW glucose updates to a fixed set of
// chats. It subscribes with a handler, so slow sends queue up on its own
// subscription and a failing send only affects this notifier.
type TelegramNotifier struct {
	Sender  Sender
	ChatIDs []int64
	// MaxAge skips readings recorded longer ago than this. Zero means
	// DefaultMaxAlertAge.
	MaxAge time.Duration

	mu  sync.Mutex
	sub *events.Subscription
	now func() time.Time
}

func NewTelegramNotifier(token string, chatIDs []int64, maxAge time.Duration) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{Sender: api, ChatIDs: chatIDs, MaxAge: maxAge}, nil
}

func (n *TelegramNotifier) stale(recordedAt time.Time) bool {
	maxAge := n.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAlertAge
	}
	now := time.Now()
	if n.now != nil {
		now = n.now()
	}
	return now.Sub(recordedAt) > maxAge
}

func (n *TelegramNotifier) Start(bus *events.Bus) error {
	sub, err := bus.SubscribeFunc(events.TopicDexcomDataUpdated, n.Handle)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.sub = sub
	n.mu.Unlock()

	common.GetLoggerWith(common.LoggerNameNotifier).Info("Telegram notifier started", zap.Int("chats", len(n.ChatIDs)))
	return nil
}

func (n *TelegramNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		n.sub.Unsubscribe()
		n.sub = nil
	}
}

func (n *TelegramNotifier) Handle(ev events.Event) {
	logger := common.GetLoggerWith(common.LoggerNameNotifier)

	update, ok := ev.Payload.(monitor.GlucoseUpdate)
	if !ok || update.Status == models.ClassificationOK || update.Reading == nil {
		return
	}
	if n.stale(update.Reading.RecordedAt) {
		logger.Debug("Skipped stale alert", zap.Uint("statusId", update.StatusID), zap.Time("recordedAt", update.Reading.RecordedAt))
		return
	}

	text := FormatAlert(update)
	for _, chatID := range n.ChatIDs {
		if _, err := n.Sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			logger.Error("Failed to send alert",
				zap.Int64("chatId", chatID),
				zap.Uint("statusId", update.StatusID),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("Alert sent", zap.Int64("chatId", chatID), zap.Uint("statusId", update.StatusID))
	}
}

func FormatAlert(update monitor.GlucoseUpdate) string {
	r := update.Reading

	var b strings.Builder
	switch update.Status {
	case models.ClassificationLow:
		b.WriteString("⬇️ LOW glucose: ")
	case models.ClassificationHigh:
		b.WriteString("⬆️ HIGH glucose: ")
	}
	unit := r.Unit
	if unit == "" {
		unit = "mg/dL"
	}
	fmt.Fprintf(&b, "%.0f %s at %s UTC", r.Value, unit, r.RecordedAt.UTC().Format("15:04"))
	if r.Trend != "" {
		fmt.Fprintf(&b, " (trend: %s)", r.Trend)
	}
	return b.String()
}
