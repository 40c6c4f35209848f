package models

import "time"

type Role string

const (
	RoleParent  Role = "PARENT"
	RoleAthlete Role = "ATHLETE"
)

type Classification string

const (
	ClassificationOK   Classification = "OK"
	ClassificationHigh Classification = "HIGH"
	ClassificationLow  Classification = "LOW"
)

type ReadingSource string

const (
	ReadingSourceDexcom ReadingSource = "dexcom"
	ReadingSourceManual ReadingSource = "manual"
)

const ProviderDexcom string = "dexcom"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(10);not null;default:PARENT;check:role IN ('PARENT','ATHLETE')" json:"role"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	IsAthlete    bool      `gorm:"not null;default:false;index" json:"isAthlete"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GlucoseReading rows are immutable. (UserID, RecordedAt) is the idempotency
// key for ingestion.
type GlucoseReading struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_reading_user_time" json:"userId"`
	RecordedAt  time.Time     `gorm:"not null;uniqueIndex:idx_reading_user_time;index" json:"recordedAt"`
	RecordID    *string       `gorm:"size:64" json:"recordId,omitempty"`
	DisplayTime *time.Time    `json:"displayTime,omitempty"`
	Value       float64       `gorm:"not null" json:"value"`
	Unit        string        `gorm:"size:16;not null;default:mg/dL" json:"unit"`
	Trend       string        `gorm:"size:32" json:"trend,omitempty"`
	TrendRate   *float64      `json:"trendRate,omitempty"`
	Source      ReadingSource `gorm:"type:varchar(10);not null;default:dexcom" json:"source"`
	CreatedAt   time.Time     `json:"createdAt"`

	Status *Status `gorm:"foreignKey:ReadingID;references:ID" json:"status,omitempty"`
}

// Status is the classification derived from exactly one reading. Only the
// acknowledgment columns change after insert.
type Status struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ReadingID        uint           `gorm:"not null;uniqueIndex" json:"readingId"`
	UserID           uint           `gorm:"not null;index" json:"userId"`
	Classification   Classification `gorm:"type:varchar(4);not null;check:classification IN ('OK','HIGH','LOW')" json:"classification"`
	Value            float64        `gorm:"not null" json:"value"`
	AcknowledgedAt   *time.Time     `json:"acknowledgedAt"`
	AcknowledgedByID *uint          `json:"acknowledgedById,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

type Message struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SenderID   uint       `gorm:"not null;index" json:"senderId"`
	ReceiverID uint       `gorm:"not null;index:idx_message_receiver_read" json:"receiverId"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Read       bool       `gorm:"not null;default:false;index:idx_message_receiver_read" json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ProviderToken holds the athlete's OAuth2 token pair for the CGM provider.
type ProviderToken struct {
	UserID       uint      `gorm:"primaryKey"`
	Provider     string    `gorm:"primaryKey;size:32"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	TokenType    string    `gorm:"size:32"`
	Expiry       time.Time
	UpdatedAt    time.Time
}

func AllModels() []any {
	return []any{&User{}, &GlucoseReading{}, &Status{}, &Message{}, &ProviderToken{}}
}
