package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	DefaultReadingsLimit = 20
	MaxReadingsLimit     = 500
)

type GlucoseUpdate struct {
	Type     string                 `json:"type"`
	Status   models.Classification  `json:"status"`
	StatusID uint                   `json:"statusId"`
	Reading  *models.GlucoseReading `json:"reading"`
}

// ingestReading persists the reading and its status in one transaction and
// publishes the update only after commit.
func (m *Monitor) ingestReading(ctx context.Context, userID uint, input *models.GlucoseReading) (*models.IngestResult, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameMonitor,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryReading),
	)

	if input == nil || math.IsNaN(input.Value) || math.IsInf(input.Value, 0) || input.Value <= 0 {
		return nil, apperr.Invalid("glucose value must be a positive number")
	}
	if input.RecordedAt.IsZero() {
		return nil, apperr.Invalid("recordedAt is required")
	}

	reading := models.GlucoseReading{
		UserID:      userID,
		RecordedAt:  input.RecordedAt.UTC().Truncate(time.Second),
		RecordID:    input.RecordID,
		DisplayTime: input.DisplayTime,
		Value:       input.Value,
		Unit:        input.Unit,
		Trend:       input.Trend,
		TrendRate:   input.TrendRate,
		Source:      input.Source,
	}
	if reading.Unit == "" {
		reading.Unit = "mg/dL"
	}
	if reading.Source == "" {
		reading.Source = models.ReadingSourceDexcom
	}

	var status models.Status
	duplicate := false

	err := m.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recorded_at"}},
			DoNothing: true,
		}).Create(&reading)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			duplicate = true
			return nil
		}

		status = models.Status{
			ReadingID:      reading.ID,
			UserID:         userID,
			Classification: m.Thresholds.Classify(reading.Value),
			Value:          reading.Value,
		}
		return tx.Create(&status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store reading: %w", err)
	}

	if duplicate {
		logger.Debug("Skipped duplicate reading", zap.Uint("userId", userID), zap.Time("recordedAt", reading.RecordedAt))
		return &models.IngestResult{Duplicate: true}, nil
	}

	logger.Info("Reading stored",
		zap.Uint("readingId", reading.ID),
		zap.Float64("value", reading.Value),
		zap.String("classification", string(status.Classification)),
	)

	m.publish(GlucoseUpdate{
		Type:     EventTypeGlucoseUpdate,
		Status:   status.Classification,
		StatusID: status.ID,
		Reading:  &reading,
	})

	withStatus := reading
	withStatus.Status = &status
	return &models.IngestResult{Reading: &withStatus, Status: &status}, nil
}

func (m *Monitor) listReadings(ctx context.Context, userID uint, limit, offset int) ([]models.GlucoseReading, error) {
	if limit <= 0 {
		limit = DefaultReadingsLimit
	}
	if limit > MaxReadingsLimit {
		limit = MaxReadingsLimit
	}
	if offset < 0 {
		offset = 0
	}

	readings := []models.GlucoseReading{}
	err := m.Db.Conn.WithContext(ctx).
		Preload("Status").
		Where("user_id = ?", userID).
		Order("recorded_at desc").
		Limit(limit).
		Offset(offset).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

// latestReading returns the newest reading of the user, restricted to source
// when it is not empty.
func (m *Monitor) latestReading(ctx context.Context, userID uint, source models.ReadingSource) (*models.GlucoseReading, error) {
	query := m.Db.Conn.WithContext(ctx).
		Preload("Status").
		Where("user_id = ?", userID)
	if source != "" {
		query = query.Where("source = ?", source)
	}

	var reading models.GlucoseReading
	err := query.Order("recorded_at desc").First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &reading, nil
}

type IReadingImpl struct {
	monitor *Monitor
}

func (ir *IReadingImpl) IngestReading(ctx context.Context, userID uint, input *models.GlucoseReading) (*models.IngestResult, error) {
	return ir.monitor.ingestReading(ctx, userID, input)
}

func (ir *IReadingImpl) ListReadings(ctx context.Context, userID uint, limit, offset int) ([]models.GlucoseReading, error) {
	return ir.monitor.listReadings(ctx, userID, limit, offset)
}

func (ir *IReadingImpl) LatestReading(ctx context.Context, userID uint) (*models.GlucoseReading, error) {
	return ir.monitor.latestReading(ctx, userID, "")
}

func (ir *IReadingImpl) LatestReadingFrom(ctx context.Context, userID uint, source models.ReadingSource) (*models.GlucoseReading, error) {
	return ir.monitor.latestReading(ctx, userID, source)
}

func (m *Monitor) GetIReading() IReading {
	return &IReadingImpl{monitor: m}
}
