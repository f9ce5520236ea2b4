package models

import (
	"errors"
	"time"
)

// Market holds the lifecycle and resolution metadata for one prediction
// market. StartTime is the first observed activity (lifecycle-start proxy),
// EndTime the scheduled deadline, ResolutionTime the actual close when known.
// A market is immutable once resolved and safe to share read-only across
// concurrent wallet evaluations.
type Market struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Slug           string    `json:"slug"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ResolutionTime time.Time `json:"resolution_time"`
	Resolved       bool      `json:"resolved"`
	WinningOutcome string    `json:"winning_outcome,omitempty"`
	TokenIDs       []string  `json:"token_ids,omitempty"`
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.Resolved {
		if m.ResolutionTime.IsZero() {
			return errors.New("resolved market must have a resolution time")
		}
		if !m.StartTime.IsZero() && m.ResolutionTime.Before(m.StartTime) {
			return errors.New("resolution time must not precede start time")
		}
	}
	if !m.StartTime.IsZero() && !m.EndTime.IsZero() && m.EndTime.Before(m.StartTime) {
		return errors.New("end time must not precede start time")
	}
	return nil
}

// CloseTime returns the actual resolution time when present, falling back to
// the scheduled deadline. Zero when neither is known.
func (m *Market) CloseTime() time.Time {
	if !m.ResolutionTime.IsZero() {
		return m.ResolutionTime
	}
	return m.EndTime
}
