package domain

import (
	"encoding/json"
	"time"
)

// Frequency determines how far a routine's next execution advances each
// time it is executed.
type Frequency string

// Valid frequency values.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether the frequency is one of the known values.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Offset returns the fixed interval a routine advances by for this
// frequency: +1 day, +7 days, or +30 days. Monthly is deliberately
// calendar-naive (always 30 days, never "same day next month").
// Returns 0 for unknown frequencies; Validate prevents those from
// being persisted, so Advance treats 0 as "leave next execution alone".
func (f Frequency) Offset() time.Duration {
	switch f {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// RoutineStatus is the lifecycle state of a routine.
type RoutineStatus string

// Valid routine status values.
const (
	RoutineStatusActive   RoutineStatus = "active"
	RoutineStatusPaused   RoutineStatus = "paused"
	RoutineStatusArchived RoutineStatus = "archived"
)

// IsValid reports whether the status is one of the known values.
func (s RoutineStatus) IsValid() bool {
	switch s {
	case RoutineStatusActive, RoutineStatusPaused, RoutineStatusArchived:
		return true
	}
	return false
}

// RoutineTask is one ordered step template within a routine. Templates
// are owned by their routine: they are created and deleted with it and
// have no independent lifecycle.
type RoutineTask struct {
	ID            int64           `json:"id"`
	RoutineID     int64           `json:"routineId"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Position      int             `json:"order"`
	EstimatedTime int             `json:"estimatedTime,omitempty"`
	Required      bool            `json:"required"`
	TaskType      string          `json:"taskType"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// Validate checks if the RoutineTask has valid data.
func (rt *RoutineTask) Validate() error {
	if rt.Title == "" {
		return NewValidationError("title", "is required", nil)
	}
	if rt.Position < 0 {
		return NewValidationError("order", "cannot be negative", nil)
	}
	return nil
}

// Routine is a recurring checklist bound to a marketplace. Executing it
// materializes its templates into concrete tasks and advances its
// schedule by the frequency offset. NextExecution is advisory data for
// clients; nothing in the server triggers executions on its own.
type Routine struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	Category             string          `json:"category,omitempty"`
	Priority             Priority        `json:"priority"`
	MarketplaceID        string          `json:"marketplace"`
	Frequency            Frequency       `json:"frequency"`
	PeriodicityConfig    json.RawMessage `json:"periodicityConfig,omitempty"`
	EstimatedTime        int             `json:"estimatedTime,omitempty"`
	Responsible          string          `json:"responsible,omitempty"`
	Status               RoutineStatus   `json:"status"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	LastExecution        *time.Time      `json:"lastExecution,omitempty"`
	NextExecution        *time.Time      `json:"nextExecution,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`

	// Tasks is the ordered template list. It is populated on reads that
	// include templates (get, execute) and may be nil on list results.
	Tasks []*RoutineTask `json:"routineTasks,omitempty"`

	// MarketplaceName and MarketplaceColor are read-side enrichments
	// joined from the owning marketplace. Never written back.
	MarketplaceName  string `json:"marketplaceName,omitempty"`
	MarketplaceColor string `json:"marketplaceColor,omitempty"`
}

// NewRoutine creates a new Routine with the given name, marketplace
// reference, and frequency, defaulting to medium priority and active
// status. Returns an error if validation fails.
func NewRoutine(name, marketplaceID string, frequency Frequency) (*Routine, error) {
	now := time.Now().UTC()
	r := &Routine{
		Name:                 name,
		MarketplaceID:        marketplaceID,
		Frequency:            frequency,
		Priority:             PriorityMedium,
		Status:               RoutineStatusActive,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks if the Routine has valid data.
// Returns a ValidationError if any field fails validation.
func (r *Routine) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "is required", nil)
	}
	if r.MarketplaceID == "" {
		return NewValidationError("marketplace", "is required", nil)
	}
	if r.Frequency == "" {
		return NewValidationError("frequency", "is required", nil)
	}
	if !r.Frequency.IsValid() {
		return NewValidationError("frequency", "must be daily, weekly, or monthly", nil)
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return NewValidationError("priority", "must be low, medium, or high", nil)
	}
	if r.Status != "" && !r.Status.IsValid() {
		return NewValidationError("status", "must be active, paused, or archived", nil)
	}
	return nil
}

// Advance records an execution at the given instant: LastExecution is
// set to now and NextExecution moves to now plus the frequency offset.
// The periodicity configuration (configured day/time) does not
// participate in the computation; the offset is fixed per frequency.
func (r *Routine) Advance(now time.Time) {
	r.LastExecution = &now
	if offset := r.Frequency.Offset(); offset > 0 {
		next := now.Add(offset)
		r.NextExecution = &next
	}
	r.UpdatedAt = now
}
