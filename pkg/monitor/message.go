package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	MaxMessageLength    = 2000
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

func (m *Monitor) sendMessage(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameMonitor,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryMessage),
	)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, apperr.Invalid(fmt.Sprintf("message content exceeds %d characters", MaxMessageLength))
	}

	conn := m.Db.Conn.WithContext(ctx)

	var count int64
	if err := conn.Model(&models.User{}).Where("id = ?", receiverID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check receiver: %w", err)
	}
	if count == 0 {
		return nil, apperr.NotFound("receiver not found")
	}

	msg := models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := conn.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	logger.Info("Message sent", zap.Uint("messageId", msg.ID), zap.Uint("from", senderID), zap.Uint("to", receiverID))
	return &msg, nil
}

func (m *Monitor) listMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	messages := []models.Message{}
	err := m.Db.Conn.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// markRead only succeeds for the receiver. A message the caller did not
// receive is reported as not found so its existence is not revealed.
func (m *Monitor) markRead(ctx context.Context, messageID, callerID uint) error {
	conn := m.Db.Conn.WithContext(ctx)

	var msg models.Message
	err := conn.Where("id = ? AND receiver_id = ?", messageID, callerID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("message not found")
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if msg.Read {
		return nil
	}

	now := m.clock()
	err = conn.Model(&models.Message{}).
		Where("id = ? AND read = ?", messageID, false).
		Updates(map[string]any{"read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

func (m *Monitor) countUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := m.Db.Conn.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

type IMessageImpl struct {
	monitor *Monitor
}

func (im *IMessageImpl) Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	return im.monitor.sendMessage(ctx, senderID, receiverID, content)
}

func (im *IMessageImpl) List(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return im.monitor.listMessages(ctx, userID, limit)
}

func (im *IMessageImpl) MarkRead(ctx context.Context, messageID, callerID uint) error {
	return im.monitor.markRead(ctx, messageID, callerID)
}

func (im *IMessageImpl) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return im.monitor.countUnread(ctx, userID)
}

func (m *Monitor) GetIMessage() IMessage {
	return &IMessageImpl{monitor: m}
}
