// Package api implements the HTTP layer: request DTOs, handlers, and the
// error-to-status mapping. Handlers validate input, call services, and
// write the shared response envelope.
package api

import (
	"encoding/json"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
}

// LoginRequest is the payload for authenticating. Login accepts either a
// username or an email address.
type LoginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the authenticated user together with a signed token.
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// MarketplaceCreateRequest is the payload for creating a marketplace. An
// omitted id is generated server-side.
type MarketplaceCreateRequest struct {
	ID           string                 `json:"id"           validate:"omitempty,max=100"`
	Name         string                 `json:"name"         validate:"required,max=200"`
	Description  string                 `json:"description"`
	Color        string                 `json:"color"        validate:"omitempty,max=20"`
	LogoURL      string                 `json:"logoUrl"      validate:"omitempty,url"`
	Type         string                 `json:"type"         validate:"required,max=100"`
	Priority     string                 `json:"priority"     validate:"omitempty,oneof=low medium high"`
	Tags         []string               `json:"tags"`
	Responsible  string                 `json:"responsible"`
	Active       *bool                  `json:"active"`
	Favorite     *bool                  `json:"favorite"`
	URLs         domain.MarketplaceURLs `json:"urls"`
	Schedule     domain.Schedule        `json:"schedule"`
	Timezone     string                 `json:"timezone"`
	CustomFields []domain.CustomField   `json:"customFields"`
}

// ToDomain builds a Marketplace from the request, stamping both timestamps
// with now.
func (req *MarketplaceCreateRequest) ToDomain(now time.Time) *domain.Marketplace {
	m := &domain.Marketplace{
		ID:           req.ID,
		Name:         req.Name,
		Description:  req.Description,
		Color:        req.Color,
		LogoURL:      req.LogoURL,
		Type:         req.Type,
		Priority:     domain.PriorityMedium,
		Tags:         req.Tags,
		Responsible:  req.Responsible,
		Active:       true,
		URLs:         req.URLs,
		Schedule:     req.Schedule,
		Timezone:     req.Timezone,
		CustomFields: req.CustomFields,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Priority != "" {
		m.Priority = domain.Priority(req.Priority)
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if req.Favorite != nil {
		m.Favorite = *req.Favorite
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.CustomFields == nil {
		m.CustomFields = []domain.CustomField{}
	}
	return m
}

// MarketplaceUpdateRequest is the partial-update payload for a marketplace.
// Only non-nil fields are applied.
type MarketplaceUpdateRequest struct {
	Name         *string                 `json:"name"        validate:"omitempty,min=1,max=200"`
	Description  *string                 `json:"description"`
	Color        *string                 `json:"color"       validate:"omitempty,max=20"`
	LogoURL      *string                 `json:"logoUrl"`
	Type         *string                 `json:"type"        validate:"omitempty,min=1,max=100"`
	Priority     *string                 `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Tags         []string                `json:"tags"`
	Responsible  *string                 `json:"responsible"`
	Active       *bool                   `json:"active"`
	Favorite     *bool                   `json:"favorite"`
	URLs         *domain.MarketplaceURLs `json:"urls"`
	Schedule     *domain.Schedule        `json:"schedule"`
	Timezone     *string                 `json:"timezone"`
	CustomFields []domain.CustomField    `json:"customFields"`
}

// Apply merges the request into the marketplace and stamps UpdatedAt.
func (req *MarketplaceUpdateRequest) Apply(m *domain.Marketplace, now time.Time) {
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Color != nil {
		m.Color = *req.Color
	}
	if req.LogoURL != nil {
		m.LogoURL = *req.LogoURL
	}
	if req.Type != nil {
		m.Type = *req.Type
	}
	if req.Priority != nil {
		m.Priority = domain.Priority(*req.Priority)
	}
	if req.Tags != nil {
		m.Tags = req.Tags
	}
	if req.Responsible != nil {
		m.Responsible = *req.Responsible
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if req.Favorite != nil {
		m.Favorite = *req.Favorite
	}
	if req.URLs != nil {
		m.URLs = *req.URLs
	}
	if req.Schedule != nil {
		m.Schedule = *req.Schedule
	}
	if req.Timezone != nil {
		m.Timezone = *req.Timezone
	}
	if req.CustomFields != nil {
		m.CustomFields = req.CustomFields
	}
	m.UpdatedAt = now
}

// RoutineTaskRequest is one step template inside a routine payload.
type RoutineTaskRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description"`
	Position      int             `json:"order" validate:"gte=0"`
	EstimatedTime int             `json:"estimatedTime" validate:"gte=0"`
	Required      bool            `json:"required"`
	TaskType      string          `json:"taskType"`
	Configuration json.RawMessage `json:"configuration"`
}

func (req *RoutineTaskRequest) toDomain() *domain.RoutineTask {
	return &domain.RoutineTask{
		Title:         req.Title,
		Description:   req.Description,
		Position:      req.Position,
		EstimatedTime: req.EstimatedTime,
		Required:      req.Required,
		TaskType:      req.TaskType,
		Configuration: req.Configuration,
	}
}

// RoutineCreateRequest is the payload for creating a routine with its
// ordered template list.
type RoutineCreateRequest struct {
	Name                 string               `json:"name"        validate:"required,max=200"`
	Description          string               `json:"description"`
	Category             string               `json:"category"`
	Priority             string               `json:"priority"    validate:"omitempty,oneof=low medium high"`
	MarketplaceID        string               `json:"marketplace" validate:"required"`
	Frequency            string               `json:"frequency"   validate:"required,oneof=daily weekly monthly"`
	PeriodicityConfig    json.RawMessage      `json:"periodicityConfig"`
	EstimatedTime        int                  `json:"estimatedTime" validate:"gte=0"`
	Responsible          string               `json:"responsible"`
	Status               string               `json:"status"      validate:"omitempty,oneof=active paused archived"`
	NotificationsEnabled *bool                `json:"notificationsEnabled"`
	NextExecution        *time.Time           `json:"nextExecution"`
	Tasks                []RoutineTaskRequest `json:"routineTasks" validate:"dive"`
}

// ToDomain builds a Routine from the request.
func (req *RoutineCreateRequest) ToDomain(now time.Time) *domain.Routine {
	r := &domain.Routine{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		Priority:             domain.PriorityMedium,
		MarketplaceID:        req.MarketplaceID,
		Frequency:            domain.Frequency(req.Frequency),
		PeriodicityConfig:    req.PeriodicityConfig,
		EstimatedTime:        req.EstimatedTime,
		Responsible:          req.Responsible,
		Status:               domain.RoutineStatusActive,
		NotificationsEnabled: true,
		NextExecution:        req.NextExecution,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.Priority != "" {
		r.Priority = domain.Priority(req.Priority)
	}
	if req.Status != "" {
		r.Status = domain.RoutineStatus(req.Status)
	}
	if req.NotificationsEnabled != nil {
		r.NotificationsEnabled = *req.NotificationsEnabled
	}
	if len(req.Tasks) > 0 {
		r.Tasks = make([]*domain.RoutineTask, 0, len(req.Tasks))
		for _, t := range req.Tasks {
			r.Tasks = append(r.Tasks, t.toDomain())
		}
	}
	return r
}

// RoutineUpdateRequest is the partial-update payload for a routine. A nil
// Tasks leaves the template list untouched; a non-nil Tasks replaces it
// wholesale, empty included.
type RoutineUpdateRequest struct {
	Name                 *string               `json:"name"        validate:"omitempty,min=1,max=200"`
	Description          *string               `json:"description"`
	Category             *string               `json:"category"`
	Priority             *string               `json:"priority"    validate:"omitempty,oneof=low medium high"`
	MarketplaceID        *string               `json:"marketplace" validate:"omitempty,min=1"`
	Frequency            *string               `json:"frequency"   validate:"omitempty,oneof=daily weekly monthly"`
	PeriodicityConfig    json.RawMessage       `json:"periodicityConfig"`
	EstimatedTime        *int                  `json:"estimatedTime" validate:"omitempty,gte=0"`
	Responsible          *string               `json:"responsible"`
	Status               *string               `json:"status"      validate:"omitempty,oneof=active paused archived"`
	NotificationsEnabled *bool                 `json:"notificationsEnabled"`
	NextExecution        *time.Time            `json:"nextExecution"`
	Tasks                *[]RoutineTaskRequest `json:"routineTasks" validate:"omitempty,dive"`
}

// Apply merges the request into the routine and stamps UpdatedAt.
func (req *RoutineUpdateRequest) Apply(r *domain.Routine, now time.Time) {
	if req.Name != nil {
		r.Name = *req.Name
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Category != nil {
		r.Category = *req.Category
	}
	if req.Priority != nil {
		r.Priority = domain.Priority(*req.Priority)
	}
	if req.MarketplaceID != nil {
		r.MarketplaceID = *req.MarketplaceID
	}
	if req.Frequency != nil {
		r.Frequency = domain.Frequency(*req.Frequency)
	}
	if req.PeriodicityConfig != nil {
		r.PeriodicityConfig = req.PeriodicityConfig
	}
	if req.EstimatedTime != nil {
		r.EstimatedTime = *req.EstimatedTime
	}
	if req.Responsible != nil {
		r.Responsible = *req.Responsible
	}
	if req.Status != nil {
		r.Status = domain.RoutineStatus(*req.Status)
	}
	if req.NotificationsEnabled != nil {
		r.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.NextExecution != nil {
		r.NextExecution = req.NextExecution
	}
	if req.Tasks != nil {
		tasks := make([]*domain.RoutineTask, 0, len(*req.Tasks))
		for _, t := range *req.Tasks {
			rt := t.toDomain()
			rt.RoutineID = r.ID
			tasks = append(tasks, rt)
		}
		r.Tasks = tasks
	} else {
		// Distinguish "leave templates alone" from "replace with none".
		r.Tasks = nil
	}
	r.UpdatedAt = now
}

// TaskCreateRequest is the payload for creating a task. An omitted id is
// generated server-side.
type TaskCreateRequest struct {
	ID            string     `json:"id"          validate:"omitempty,max=100"`
	Title         string     `json:"title"       validate:"required,max=200"`
	Description   string     `json:"description"`
	MarketplaceID string     `json:"marketplace" validate:"required"`
	RoutineID     *int64     `json:"routineId"`
	Category      string     `json:"category"`
	Priority      string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status        string     `json:"status"      validate:"omitempty,oneof=todo in-progress completed"`
	AssigneeID    *int64     `json:"assigneeId"`
	DueDate       *time.Time `json:"dueDate"`
	EstimatedTime int        `json:"estimatedTime" validate:"gte=0"`
	Links         []string   `json:"links"`
	Notes         string     `json:"notes"`
}

// ToDomain builds a Task from the request.
func (req *TaskCreateRequest) ToDomain(now time.Time) *domain.Task {
	t := &domain.Task{
		ID:            req.ID,
		Title:         req.Title,
		Description:   req.Description,
		MarketplaceID: req.MarketplaceID,
		RoutineID:     req.RoutineID,
		Category:      req.Category,
		Priority:      domain.PriorityMedium,
		Status:        domain.TaskStatusTodo,
		AssigneeID:    req.AssigneeID,
		DueDate:       req.DueDate,
		EstimatedTime: req.EstimatedTime,
		Links:         req.Links,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Priority != "" {
		t.Priority = domain.Priority(req.Priority)
	}
	if req.Status != "" {
		t.Status = domain.TaskStatus(req.Status)
	}
	if t.Links == nil {
		t.Links = []string{}
	}
	return t
}

// TaskUpdateRequest is the partial-update payload for a task. Status
// changes here bypass the transition rules; the start/complete/pause
// endpoints enforce them.
type TaskUpdateRequest struct {
	Title         *string    `json:"title"       validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description"`
	MarketplaceID *string    `json:"marketplace" validate:"omitempty,min=1"`
	Category      *string    `json:"category"`
	Priority      *string    `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status        *string    `json:"status"      validate:"omitempty,oneof=todo in-progress completed"`
	AssigneeID    *int64     `json:"assigneeId"`
	DueDate       *time.Time `json:"dueDate"`
	EstimatedTime *int       `json:"estimatedTime" validate:"omitempty,gte=0"`
	Links         []string   `json:"links"`
	Notes         *string    `json:"notes"`
}

// Apply merges the request into the task and stamps UpdatedAt.
func (req *TaskUpdateRequest) Apply(t *domain.Task, now time.Time) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.MarketplaceID != nil {
		t.MarketplaceID = *req.MarketplaceID
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Priority != nil {
		t.Priority = domain.Priority(*req.Priority)
	}
	if req.Status != nil {
		t.Status = domain.TaskStatus(*req.Status)
	}
	if req.AssigneeID != nil {
		t.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.EstimatedTime != nil {
		t.EstimatedTime = *req.EstimatedTime
	}
	if req.Links != nil {
		t.Links = req.Links
	}
	if req.Notes != nil {
		t.Notes = *req.Notes
	}
	t.UpdatedAt = now
}

// UserCreateRequest is the admin payload for creating an account directly,
// role included.
type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin user"`
	Active   *bool  `json:"active"`
}

// UserUpdateRequest is the partial-update payload for a user. Role and
// Active are admin-only; the handler rejects them for non-admin callers.
type UserUpdateRequest struct {
	Email                *string `json:"email"    validate:"omitempty,email"`
	Password             *string `json:"password" validate:"omitempty,min=8,max=72"`
	Name                 *string `json:"name"     validate:"omitempty,max=100"`
	AvatarURL            *string `json:"avatarUrl"`
	Timezone             *string `json:"timezone"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	Role                 *string `json:"role"     validate:"omitempty,oneof=admin user"`
	Active               *bool   `json:"active"`
}

// Apply merges the request into the user and stamps UpdatedAt. A non-nil
// Password is copied into the plaintext field for the service to rehash.
func (req *UserUpdateRequest) Apply(u *domain.User, now time.Time) {
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Password != nil {
		u.Password = *req.Password
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	if req.Timezone != nil {
		u.Timezone = *req.Timezone
	}
	if req.NotificationsEnabled != nil {
		u.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.Role != nil {
		u.Role = domain.Role(*req.Role)
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	u.UpdatedAt = now
}
