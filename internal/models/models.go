// Package models defines the GORM models persisted in the local client database.
package models

import "time"

// Session holds the persisted auth token. At most one row is active at a
// time; presence of a row means "authenticated" downstream. The token is
// never validated or refreshed locally — a stale token stays present until
// the backend rejects it.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// ChatMessage is a cached entry of the coach conversation, kept in append
// order. RemoteID is the server-assigned id for confirmed messages and the
// client-generated timestamp id for pending ones; the two are never
// reconciled against each other.
type ChatMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RemoteID  int64  `gorm:"index"`
	Content   string `gorm:"type:text"`
	FromUser  bool
	Pending   bool `gorm:"default:false"`
	CreatedAt time.Time
}

// Workout is a cached workout from the training plan.
type Workout struct {
	ID           uint  `gorm:"primaryKey"`
	RemoteID     int64 `gorm:"uniqueIndex"`
	Title        string `gorm:"size:256"`
	Description  string `gorm:"type:text"`
	ScheduledFor string `gorm:"size:64"`
	IsComplete   bool   `gorm:"default:false"`
	UpdatedAt    time.Time
}

// Notification records a push notification received while the client was
// listening. The most recent row backs the coordinator's last-notification
// state across runs.
type Notification struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Title      string `gorm:"size:256"`
	Body       string `gorm:"type:text"`
	Data       string `gorm:"type:text"` // JSON-encoded payload data
	ReceivedAt time.Time
}

// Device tracks the push registration state of this device. The token is
// re-derived on every coordinator activation, so this row is informational.
type Device struct {
	ID                uint   `gorm:"primaryKey"`
	PushToken         string `gorm:"type:text"`
	Physical          bool
	PermissionGranted bool
	UpdatedAt         time.Time
}
