package cgm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	DefaultPollInterval = 5 * time.Minute
	DefaultBackfill     = 24 * time.Hour
	minLockTTL          = time.Minute
)

var (
	ErrCycleInFlight = errors.New("cgm: poll cycle already running")
	ErrNotLinked     = errors.New("cgm: athlete has no provider token")
	ErrTokenRefresh  = errors.New("cgm: token refresh failed")
	ErrNoAthlete     = errors.New("cgm: no athlete designated")
)

// Ingestor stores a reading with its status and publishes the update.
type Ingestor interface {
	IngestReading(ctx context.Context, userID uint, input *models.GlucoseReading) (*models.IngestResult, error)
	LatestReadingFrom(ctx context.Context, userID uint, source models.ReadingSource) (*models.GlucoseReading, error)
}

type AthleteFinder interface {
	GetAthlete(ctx context.Context) (*models.User, error)
}

type TokenRepository interface {
	Load(ctx context.Context, userID uint) (*oauth2.Token, error)
	Save(ctx context.Context, userID uint, token *oauth2.Token) error
}

type CycleResult struct {
	Fetched    int `json:"fetched"`
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

type Poller struct {
	Provider Provider
	Tokens   TokenRepository
	Readings Ingestor
	Athletes AthleteFinder
	Lock     CycleLock
	// States issues the OAuth state values checked by the link callback.
	States StateStore

	Interval time.Duration
	Backfill time.Duration

	inFlight atomic.Bool
	now      func() time.Time
}

func NewPoller(provider Provider, tokens TokenRepository, readings Ingestor, athletes AthleteFinder) *Poller {
	return &Poller{
		Provider: provider,
		Tokens:   tokens,
		Readings: readings,
		Athletes: athletes,
		Lock:     &LocalLock{},
		States:   &LocalStateStore{},
		Interval: DefaultPollInterval,
		Backfill: DefaultBackfill,
	}
}

func (p *Poller) clock() time.Time {
	if p.now != nil {
		return p.now().UTC()
	}
	return time.Now().UTC()
}

func (p *Poller) lockTTL() time.Duration {
	if p.Interval > minLockTTL {
		return p.Interval
	}
	return minLockTTL
}

// Run polls immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	logger := common.GetLoggerWith(
		common.LoggerNameCGMWorker,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryCycle),
	)

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.Info("Poller started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Poll cycle skipped", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("Poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle fetches and stores everything newer than the latest stored
// provider reading. It returns ErrCycleInFlight without fetching when another cycle
// holds the lock.
func (p *Poller) RunCycle(ctx context.Context) (*CycleResult, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameCGMWorker,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryCycle),
	)

	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer p.inFlight.Store(false)

	release, ok, err := p.Lock.Acquire(ctx, p.lockTTL())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCycleInFlight
	}
	defer release()

	athlete, err := p.Athletes.GetAthlete(ctx)
	if err != nil {
		return nil, fmt.Errorf("load athlete: %w", err)
	}
	if athlete == nil {
		return nil, ErrNoAthlete
	}

	token, err := p.currentToken(ctx, athlete.ID)
	if err != nil {
		return nil, err
	}

	end := p.clock()
	start := end.Add(-p.backfill())
	// manual readings do not move the window, the provider delivers late
	latest, err := p.Readings.LatestReadingFrom(ctx, athlete.ID, models.ReadingSourceDexcom)
	if err != nil {
		return nil, fmt.Errorf("load latest reading: %w", err)
	}
	if latest != nil && latest.RecordedAt.After(start) && latest.RecordedAt.Before(end) {
		start = latest.RecordedAt.Add(time.Second)
	}

	readings, err := p.Provider.FetchReadings(ctx, token, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch readings: %w", err)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].SystemTime.Before(readings[j].SystemTime)
	})

	result := &CycleResult{Fetched: len(readings)}
	for _, r := range readings {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := p.Readings.IngestReading(ctx, athlete.ID, toModel(r))
		if err != nil {
			result.Failed++
			logger.Error("Failed to store reading",
				zap.String("recordId", r.RecordID),
				zap.Time("systemTime", r.SystemTime),
				zap.Error(err),
			)
			continue
		}
		if res.Duplicate {
			result.Duplicates++
		} else {
			result.Stored++
		}
	}

	logger.Info("Poll cycle finished",
		zap.Uint("athleteId", athlete.ID),
		zap.Int("fetched", result.Fetched),
		zap.Int("stored", result.Stored),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (p *Poller) backfill() time.Duration {
	if p.Backfill <= 0 {
		return DefaultBackfill
	}
	return p.Backfill
}

// currentToken returns a usable access token, refreshing and persisting it
// first when it has expired.
func (p *Poller) currentToken(ctx context.Context, athleteID uint) (*oauth2.Token, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameCGMWorker,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryToken),
	)

	token, err := p.Tokens.Load(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if token.Valid() {
		return token, nil
	}

	refreshed, err := p.Provider.Refresh(ctx, token)
	if err != nil {
		logger.Error("Token refresh failed", zap.Uint("athleteId", athleteID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	if err := p.Tokens.Save(ctx, athleteID, refreshed); err != nil {
		return nil, err
	}

	logger.Info("Token refreshed", zap.Uint("athleteId", athleteID), zap.Time("expiry", refreshed.Expiry))
	return refreshed, nil
}

// Link exchanges an authorization code and stores the token for the athlete.
func (p *Poller) Link(ctx context.Context, code string) error {
	athlete, err := p.Athletes.GetAthlete(ctx)
	if err != nil {
		return fmt.Errorf("load athlete: %w", err)
	}
	if athlete == nil {
		return ErrNoAthlete
	}

	token, err := p.Provider.Exchange(ctx, code)
	if err != nil {
		return err
	}
	return p.Tokens.Save(ctx, athlete.ID, token)
}

func toModel(r Reading) *models.GlucoseReading {
	reading := &models.GlucoseReading{
		RecordedAt:  r.SystemTime,
		DisplayTime: r.DisplayTime,
		Value:       r.Value,
		Unit:        r.Unit,
		Trend:       r.Trend,
		TrendRate:   r.TrendRate,
		Source:      models.ReadingSourceDexcom,
	}
	if r.RecordID != "" {
		id := r.RecordID
		reading.RecordID = &id
	}
	return reading
}
