package models

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type IngestResult struct {
	Reading *GlucoseReading
	Status  *Status
	// Duplicate is set when a reading for the same user and instant already
	// existed. Nothing was written or published.
	Duplicate bool
}

// AthleteView is the denormalized dashboard payload. Every field but
// UnreadMessages is empty when no athlete is designated.
type AthleteView struct {
	Athlete        *User            `json:"athlete"`
	Glucose        *GlucoseReading  `json:"glucose"`
	Status         *Status          `json:"status"`
	GlucoseHistory []GlucoseReading `json:"glucoseHistory"`
	UnreadMessages int64            `json:"unreadMessages"`
}

type CurrentStatus struct {
	Status         *Status         `json:"status"`
	GlucoseReading *GlucoseReading `json:"glucoseReading"`
}
