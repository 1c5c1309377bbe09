package models

import "time"

// TableStatus defines the occupancy state of a dining table
type TableStatus string

const (
	TableStatusVacant   TableStatus = "vacant"
	TableStatusOccupied TableStatus = "occupied"
)

// Table represents a physical dining table. ID is the table number shown to staff.
type Table struct {
	ID             int         `json:"id" db:"id"`
	Status         TableStatus `json:"status" db:"status"`
	OccupiedAt     *time.Time  `json:"occupied_at,omitempty" db:"occupied_at"`
	ElapsedSeconds int64       `json:"elapsed_seconds"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Elapsed is the time since the table became occupied, or zero when it is vacant.
func (t *Table) Elapsed(now time.Time) time.Duration {
	if t.Status != TableStatusOccupied || t.OccupiedAt == nil {
		return 0
	}
	if d := now.Sub(*t.OccupiedAt); d > 0 {
		return d
	}
	return 0
}
