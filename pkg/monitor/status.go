package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	DefaultLowThreshold  float64 = 70
	DefaultHighThreshold float64 = 180
)

// Thresholds are in mg/dL. Both bounds are inclusive of OK.
type Thresholds struct {
	Low  float64
	High float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLowThreshold, High: DefaultHighThreshold}
}

func (t Thresholds) Classify(value float64) models.Classification {
	switch {
	case value < t.Low:
		return models.ClassificationLow
	case value > t.High:
		return models.ClassificationHigh
	default:
		return models.ClassificationOK
	}
}

type StatusAcknowledged struct {
	Type           string    `json:"type"`
	StatusID       uint      `json:"statusId"`
	AcknowledgedAt time.Time `json:"acknowledgedAt"`
	AcknowledgedBy uint      `json:"acknowledgedBy"`
}

func (m *Monitor) statusFor(ctx context.Context, readingID uint) (*models.Status, error) {
	var status models.Status
	err := m.Db.Conn.WithContext(ctx).Where("reading_id = ?", readingID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load status: %w", err)
	}
	return &status, nil
}

// acknowledge stamps the status once. Repeating it returns the status with
// the original timestamp and publishes nothing.
func (m *Monitor) acknowledge(ctx context.Context, statusID, byUserID uint) (*models.Status, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameMonitor,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryStatus),
	)

	conn := m.Db.Conn.WithContext(ctx)

	var status models.Status
	if err := conn.First(&status, statusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("status not found")
		}
		return nil, fmt.Errorf("load status: %w", err)
	}
	if status.AcknowledgedAt != nil {
		return &status, nil
	}

	now := m.clock().Truncate(time.Second)
	res := conn.Model(&models.Status{}).
		Where("id = ? AND acknowledged_at IS NULL", statusID).
		Updates(map[string]any{"acknowledged_at": now, "acknowledged_by_id": byUserID})
	if res.Error != nil {
		return nil, fmt.Errorf("acknowledge status: %w", res.Error)
	}

	if err := conn.First(&status, statusID).Error; err != nil {
		return nil, fmt.Errorf("reload status: %w", err)
	}
	if res.RowsAffected == 0 {
		// someone else got there first
		return &status, nil
	}

	logger.Info("Status acknowledged", zap.Uint("statusId", statusID), zap.Uint("by", byUserID))

	m.publish(StatusAcknowledged{
		Type:           EventTypeStatusAcknowledged,
		StatusID:       status.ID,
		AcknowledgedAt: *status.AcknowledgedAt,
		AcknowledgedBy: byUserID,
	})

	return &status, nil
}

type IStatusImpl struct {
	monitor *Monitor
}

func (is *IStatusImpl) StatusFor(ctx context.Context, readingID uint) (*models.Status, error) {
	return is.monitor.statusFor(ctx, readingID)
}

func (is *IStatusImpl) Acknowledge(ctx context.Context, statusID, byUserID uint) (*models.Status, error) {
	return is.monitor.acknowledge(ctx, statusID, byUserID)
}

func (m *Monitor) GetIStatus() IStatus {
	return &IStatusImpl{monitor: m}
}
