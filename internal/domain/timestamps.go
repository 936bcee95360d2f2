package domain

import "time"

// Timestamps tracks row creation and modification times.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both timestamps to now.
func (t *Timestamps) InitTimestamps() {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (t *Timestamps) Touch() {
	t.UpdatedAt = time.Now().UTC()
}
