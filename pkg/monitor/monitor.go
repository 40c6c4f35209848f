package monitor

//go:generate mockgen -source=monitor.go -destination=mocks/monitor_mock.go -package=mocks

import (
	"context"
	"time"

	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	EventTypeGlucoseUpdate      string = "glucose-update"
	EventTypeStatusAcknowledged string = "status-acknowledged"
)

type IUser interface {
	Register(ctx context.Context, input models.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// GetAthlete returns nil without error when no athlete is designated.
	GetAthlete(ctx context.Context) (*models.User, error)
	SetAthlete(ctx context.Context, email string) (*models.User, error)
}

type IReading interface {
	IngestReading(ctx context.Context, userID uint, input *models.GlucoseReading) (*models.IngestResult, error)
	ListReadings(ctx context.Context, userID uint, limit, offset int) ([]models.GlucoseReading, error)
	LatestReading(ctx context.Context, userID uint) (*models.GlucoseReading, error)
	// LatestReadingFrom only considers readings recorded by source.
	LatestReadingFrom(ctx context.Context, userID uint, source models.ReadingSource) (*models.GlucoseReading, error)
}

type IStatus interface {
	StatusFor(ctx context.Context, readingID uint) (*models.Status, error)
	Acknowledge(ctx context.Context, statusID, byUserID uint) (*models.Status, error)
}

type IMessage interface {
	Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error)
	List(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID, callerID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type IAthlete interface {
	View(ctx context.Context, callerID uint, historyLimit int) (*models.AthleteView, error)
	CurrentStatus(ctx context.Context) (*models.CurrentStatus, error)
}

type Monitor struct {
	Db         db.DB
	Bus        *events.Bus
	Thresholds Thresholds

	User    IUser
	Reading IReading
	Status  IStatus
	Message IMessage
	Athlete IAthlete

	now func() time.Time
}

type ServiceOpts struct {
	User    IUser
	Reading IReading
	Status  IStatus
	Message IMessage
	Athlete IAthlete
}

// New wires a Monitor with its own service implementations.
func New(database db.DB, bus *events.Bus, thresholds Thresholds) *Monitor {
	m := &Monitor{Db: database, Bus: bus, Thresholds: thresholds}
	return m.WithServices(ServiceOpts{
		User:    m.GetIUser(),
		Reading: m.GetIReading(),
		Status:  m.GetIStatus(),
		Message: m.GetIMessage(),
		Athlete: m.GetIAthlete(),
	})
}

func (m *Monitor) WithServices(opts ServiceOpts) *Monitor {
	if opts.User != nil {
		m.User = opts.User
	}
	if opts.Reading != nil {
		m.Reading = opts.Reading
	}
	if opts.Status != nil {
		m.Status = opts.Status
	}
	if opts.Message != nil {
		m.Message = opts.Message
	}
	if opts.Athlete != nil {
		m.Athlete = opts.Athlete
	}
	return m
}

func (m *Monitor) clock() time.Time {
	if m.now != nil {
		return m.now().UTC()
	}
	return time.Now().UTC()
}

func (m *Monitor) publish(payload any) {
	if m.Bus == nil {
		return
	}
	m.Bus.Publish(events.TopicDexcomDataUpdated, payload)
}
