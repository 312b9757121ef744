package model

import "time"

// Entry is one stored (service name, secret) pair owned by a user. ID is
// assigned by the backend.
type Entry struct {
	ID          string
	OwnerUserID string
	ServiceName string
	Secret      string
	CreatedAt   time.Time
}

// NewEntry is the insert payload for an Entry. The backend assigns ID and
// CreatedAt.
type NewEntry struct {
	OwnerUserID string
	ServiceName string
	Secret      string
}
