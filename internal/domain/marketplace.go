package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents the importance level shared by marketplaces,
// routines, and tasks.
type Priority string

// Valid priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// MarketplaceURLs groups the external links attached to a marketplace.
type MarketplaceURLs struct {
	Admin   string `json:"admin,omitempty"`
	Reports string `json:"reports,omitempty"`
	Other   string `json:"other,omitempty"`
}

// Schedule is the daily operating window of a marketplace, expressed as
// "HH:MM" times of day in the marketplace's timezone.
type Schedule struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// CustomField is one free-form key/value pair attached to a marketplace.
// Fields keep their insertion order.
type CustomField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Marketplace represents a seller account being managed. It is the root
// entity of the model: routines and tasks reference it by id, and it
// cannot be deleted while any of them still do.
type Marketplace struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Color        string          `json:"color,omitempty"`
	LogoURL      string          `json:"logoUrl,omitempty"`
	Type         string          `json:"type"`
	Priority     Priority        `json:"priority"`
	Tags         []string        `json:"tags"`
	Responsible  string          `json:"responsible,omitempty"`
	Active       bool            `json:"active"`
	Favorite     bool            `json:"favorite"`
	URLs         MarketplaceURLs `json:"urls"`
	Schedule     Schedule        `json:"schedule"`
	Timezone     string          `json:"timezone,omitempty"`
	CustomFields []CustomField   `json:"customFields"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewMarketplace creates a new Marketplace with the given id, name, and
// type. An empty id is replaced with a generated UUID. Defaults follow
// the ones the front end expects: medium priority, active, not favorite.
// Returns an error if validation fails.
func NewMarketplace(id, name, mpType string) (*Marketplace, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	m := &Marketplace{
		ID:           id,
		Name:         name,
		Type:         mpType,
		Priority:     PriorityMedium,
		Tags:         []string{},
		Active:       true,
		CustomFields: []CustomField{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks if the Marketplace has valid data.
// Returns a ValidationError if any field fails validation.
func (m *Marketplace) Validate() error {
	if m.ID == "" {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if m.Name == "" {
		return NewValidationError("name", "is required", nil)
	}
	if m.Type == "" {
		return NewValidationError("type", "is required", nil)
	}
	if m.Priority != "" && !m.Priority.IsValid() {
		return NewValidationError("priority", "must be low, medium, or high", nil)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and stamps UpdatedAt.
func (m *Marketplace) ToggleFavorite(now time.Time) {
	m.Favorite = !m.Favorite
	m.UpdatedAt = now
}

// ToggleActive flips the active flag and stamps UpdatedAt.
func (m *Marketplace) ToggleActive(now time.Time) {
	m.Active = !m.Active
	m.UpdatedAt = now
}
