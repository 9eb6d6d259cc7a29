package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// Hand-written in-memory fakes for the store interfaces. Only the behavior
// the services rely on is modeled; filters are applied where a test needs
// them.

type fakeMarketplaceStore struct {
	items      map[string]*domain.Marketplace
	references map[string]int
	failWith   error
}

func newFakeMarketplaceStore() *fakeMarketplaceStore {
	return &fakeMarketplaceStore{
		items:      map[string]*domain.Marketplace{},
		references: map[string]int{},
	}
}

func (f *fakeMarketplaceStore) Create(_ context.Context, m *domain.Marketplace) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[m.ID]; ok {
		return fmt.Errorf("%w: marketplace id %s", store.ErrDuplicate, m.ID)
	}
	f.items[m.ID] = m
	return nil
}

func (f *fakeMarketplaceStore) GetByID(_ context.Context, id string) (*domain.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.items[id]
	if !ok {
		return nil, store.ErrMarketplaceNotFound
	}
	return m, nil
}

func (f *fakeMarketplaceStore) List(_ context.Context, _ store.MarketplaceFilter) ([]*domain.Marketplace, error) {
	out := []*domain.Marketplace{}
	for _, m := range f.items {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMarketplaceStore) Update(_ context.Context, m *domain.Marketplace) error {
	if _, ok := f.items[m.ID]; !ok {
		return store.ErrMarketplaceNotFound
	}
	f.items[m.ID] = m
	return nil
}

func (f *fakeMarketplaceStore) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrMarketplaceNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMarketplaceStore) CountReferences(_ context.Context, id string) (int, error) {
	return f.references[id], nil
}

func (f *fakeMarketplaceStore) WithTx(_ *sql.Tx) store.MarketplaceStore { return f }

type fakeRoutineStore struct {
	items      map[int64]*domain.Routine
	nextID     int64
	stats      *store.RoutineStats
	updateErr  error
	lastUpdate *domain.Routine
	// Tasks slice as seen at Update time, before the caller touches it again.
	lastUpdateTasks []*domain.RoutineTask
}

func newFakeRoutineStore() *fakeRoutineStore {
	return &fakeRoutineStore{items: map[int64]*domain.Routine{}, nextID: 1}
}

func (f *fakeRoutineStore) Create(_ context.Context, r *domain.Routine) error {
	r.ID = f.nextID
	f.nextID++
	for _, tmpl := range r.Tasks {
		tmpl.RoutineID = r.ID
	}
	f.items[r.ID] = r
	return nil
}

func (f *fakeRoutineStore) GetByID(_ context.Context, id int64) (*domain.Routine, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, store.ErrRoutineNotFound
	}
	return r, nil
}

func (f *fakeRoutineStore) List(_ context.Context, _ store.RoutineFilter) ([]*domain.Routine, error) {
	out := []*domain.Routine{}
	for _, r := range f.items {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoutineStore) Update(_ context.Context, r *domain.Routine) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.items[r.ID]; !ok {
		return store.ErrRoutineNotFound
	}
	f.items[r.ID] = r
	f.lastUpdate = r
	f.lastUpdateTasks = r.Tasks
	return nil
}

func (f *fakeRoutineStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrRoutineNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRoutineStore) Stats(_ context.Context, _ time.Time) (*store.RoutineStats, error) {
	if f.stats == nil {
		return &store.RoutineStats{}, nil
	}
	return f.stats, nil
}

func (f *fakeRoutineStore) WithTx(_ *sql.Tx) store.RoutineStore { return f }

type fakeTaskStore struct {
	items     map[string]*domain.Task
	createErr error
	order     []string
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{items: map[string]*domain.Task{}}
}

func (f *fakeTaskStore) Create(_ context.Context, t *domain.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.items[t.ID]; ok {
		return fmt.Errorf("%w: task id %s", store.ErrDuplicate, t.ID)
	}
	f.items[t.ID] = t
	f.order = append(f.order, t.ID)
	return nil
}

func (f *fakeTaskStore) CreateMultiple(ctx context.Context, tasks []*domain.Task) error {
	for _, t := range tasks {
		if err := f.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTaskStore) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	out := []*domain.Task{}
	for _, id := range f.order {
		t := f.items[id]
		if t == nil {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.DueBucket == store.BucketToday {
			day := filter.Now.UTC().Truncate(24 * time.Hour)
			if t.DueDate == nil || t.DueDate.Before(day) || !t.DueDate.Before(day.Add(24*time.Hour)) {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, t *domain.Task) error {
	if _, ok := f.items[t.ID]; !ok {
		return store.ErrTaskNotFound
	}
	f.items[t.ID] = t
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

type fakeUserStore struct {
	items  map[int64]*domain.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{items: map[int64]*domain.User{}, nextID: 1}
}

func (f *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.items {
		if existing.Username == u.Username {
			return store.ErrUsernameExists
		}
		if existing.Email == u.Email {
			return store.ErrEmailExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.items[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, u := range f.items {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range f.items {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, u *domain.User) error {
	if _, ok := f.items[u.ID]; !ok {
		return store.ErrUserNotFound
	}
	f.items[u.ID] = u
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

// passthroughTx runs the transactional function directly, outside any
// real transaction.
func passthroughTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

type fakeJWTService struct {
	token       string
	generateErr error
}

func (f *fakeJWTService) GenerateToken(_ context.Context, userID int64) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	if f.token != "" {
		return f.token, nil
	}
	return fmt.Sprintf("token-for-%d", userID), nil
}

func (f *fakeJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	panic("not used in service tests")
}

// plainHasher "hashes" by prefixing, keeping tests independent of bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}
