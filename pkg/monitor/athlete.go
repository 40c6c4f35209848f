package monitor

import (
	"context"

	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const DefaultHistoryLimit = 10

func (m *Monitor) view(ctx context.Context, callerID uint, historyLimit int) (*models.AthleteView, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	unread, err := m.Message.CountUnread(ctx, callerID)
	if err != nil {
		return nil, err
	}

	view := &models.AthleteView{GlucoseHistory: []models.GlucoseReading{}, UnreadMessages: unread}

	athlete, err := m.User.GetAthlete(ctx)
	if err != nil {
		return nil, err
	}
	if athlete == nil {
		return view, nil
	}
	view.Athlete = athlete

	// one extra row so the latest can be split off from the history
	readings, err := m.Reading.ListReadings(ctx, athlete.ID, historyLimit+1, 0)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return view, nil
	}

	latest := readings[0]
	view.Glucose = &latest
	view.Status = latest.Status
	if view.Status == nil {
		if view.Status, err = m.Status.StatusFor(ctx, latest.ID); err != nil {
			return nil, err
		}
	}
	view.GlucoseHistory = readings[1:]

	return view, nil
}

func (m *Monitor) currentStatus(ctx context.Context) (*models.CurrentStatus, error) {
	current := &models.CurrentStatus{}

	athlete, err := m.User.GetAthlete(ctx)
	if err != nil || athlete == nil {
		return current, err
	}

	reading, err := m.Reading.LatestReading(ctx, athlete.ID)
	if err != nil || reading == nil {
		return current, err
	}
	current.GlucoseReading = reading
	current.Status = reading.Status
	if current.Status == nil {
		if current.Status, err = m.Status.StatusFor(ctx, reading.ID); err != nil {
			return nil, err
		}
	}
	return current, nil
}

type IAthleteImpl struct {
	monitor *Monitor
}

func (ia *IAthleteImpl) View(ctx context.Context, callerID uint, historyLimit int) (*models.AthleteView, error) {
	return ia.monitor.view(ctx, callerID, historyLimit)
}

func (ia *IAthleteImpl) CurrentStatus(ctx context.Context) (*models.CurrentStatus, error) {
	return ia.monitor.currentStatus(ctx)
}

func (m *Monitor) GetIAthlete() IAthlete {
	return &IAthleteImpl{monitor: m}
}
