package api

import (
	"context"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// In-memory service fakes for handler tests. Each fake returns canned
// errors when failWith is set, otherwise serves from its map.

type fakeMarketplaceService struct {
	items    map[string]*domain.Marketplace
	failWith error
}

func newFakeMarketplaceService() *fakeMarketplaceService {
	return &fakeMarketplaceService{items: make(map[string]*domain.Marketplace)}
}

func (f *fakeMarketplaceService) Create(_ context.Context, m *domain.Marketplace) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, exists := f.items[m.ID]; exists {
		return store.ErrDuplicate
	}
	f.items[m.ID] = m
	return nil
}

func (f *fakeMarketplaceService) Get(_ context.Context, id string) (*domain.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.items[id]
	if !ok {
		return nil, store.ErrMarketplaceNotFound
	}
	return m, nil
}

func (f *fakeMarketplaceService) List(_ context.Context, filter store.MarketplaceFilter) ([]*domain.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := []*domain.Marketplace{}
	for _, m := range f.items {
		if filter.FavoritesOnly && !m.Favorite {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (f *fakeMarketplaceService) Update(_ context.Context, m *domain.Marketplace) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[m.ID]; !ok {
		return store.ErrMarketplaceNotFound
	}
	f.items[m.ID] = m
	return nil
}

func (f *fakeMarketplaceService) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrMarketplaceNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMarketplaceService) ToggleFavorite(ctx context.Context, id string, now time.Time) (*domain.Marketplace, error) {
	m, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ToggleFavorite(now)
	return m, nil
}

func (f *fakeMarketplaceService) ToggleActive(ctx context.Context, id string, now time.Time) (*domain.Marketplace, error) {
	m, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.ToggleActive(now)
	return m, nil
}

var _ service.MarketplaceService = (*fakeMarketplaceService)(nil)

type fakeRoutineService struct {
	items    map[int64]*domain.Routine
	nextID   int64
	stats    *service.RoutineStatsResult
	executed *service.ExecutionResult
	failWith error
}

func newFakeRoutineService() *fakeRoutineService {
	return &fakeRoutineService{items: make(map[int64]*domain.Routine), nextID: 1}
}

func (f *fakeRoutineService) Create(_ context.Context, r *domain.Routine) error {
	if f.failWith != nil {
		return f.failWith
	}
	r.ID = f.nextID
	f.nextID++
	f.items[r.ID] = r
	return nil
}

func (f *fakeRoutineService) Get(_ context.Context, id int64) (*domain.Routine, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	r, ok := f.items[id]
	if !ok {
		return nil, store.ErrRoutineNotFound
	}
	return r, nil
}

func (f *fakeRoutineService) List(_ context.Context, _ store.RoutineFilter) ([]*domain.Routine, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := []*domain.Routine{}
	for _, r := range f.items {
		result = append(result, r)
	}
	return result, nil
}

func (f *fakeRoutineService) Update(_ context.Context, r *domain.Routine) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[r.ID]; !ok {
		return store.ErrRoutineNotFound
	}
	f.items[r.ID] = r
	return nil
}

func (f *fakeRoutineService) Delete(_ context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrRoutineNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRoutineService) Execute(_ context.Context, id int64, _ time.Time) (*service.ExecutionResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if _, ok := f.items[id]; !ok {
		return nil, store.ErrRoutineNotFound
	}
	return f.executed, nil
}

func (f *fakeRoutineService) Stats(_ context.Context, _ time.Time) (*service.RoutineStatsResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.stats, nil
}

var _ service.RoutineService = (*fakeRoutineService)(nil)

type fakeTaskService struct {
	items    map[string]*domain.Task
	failWith error
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{items: make(map[string]*domain.Task)}
}

func (f *fakeTaskService) Create(_ context.Context, t *domain.Task) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.items[t.ID] = t
	return nil
}

func (f *fakeTaskService) Get(_ context.Context, id string) (*domain.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.items[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTaskService) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := []*domain.Task{}
	for _, t := range f.items {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (f *fakeTaskService) Update(_ context.Context, t *domain.Task) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[t.ID]; !ok {
		return store.ErrTaskNotFound
	}
	f.items[t.ID] = t
	return nil
}

func (f *fakeTaskService) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTaskService) Start(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	t, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Start(now); err != nil {
		return nil, err
	}
	return t, nil
}

func (f *fakeTaskService) Complete(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	t, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Complete(now)
	return t, nil
}

func (f *fakeTaskService) Pause(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	t, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Pause(now)
	return t, nil
}

var _ service.TaskService = (*fakeTaskService)(nil)

type fakeStatsService struct {
	daily    *service.DailyTasksResult
	stats    *service.TaskStatsResult
	failWith error
}

func (f *fakeStatsService) DailyTasks(_ context.Context, _ time.Time) (*service.DailyTasksResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.daily, nil
}

func (f *fakeStatsService) TaskStats(_ context.Context, _ time.Time) (*service.TaskStatsResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.stats, nil
}

var _ service.StatsService = (*fakeStatsService)(nil)

type fakeUserService struct {
	items    map[int64]*domain.User
	nextID   int64
	failWith error
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{items: make(map[int64]*domain.User), nextID: 1}
}

func (f *fakeUserService) Register(_ context.Context, u *domain.User, _ time.Time) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	u.Role = domain.RoleUser
	u.Active = true
	for _, existing := range f.items {
		if existing.Username == u.Username {
			return "", store.ErrUsernameExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	u.Password = ""
	f.items[u.ID] = u
	return "test-token", nil
}

func (f *fakeUserService) Login(_ context.Context, login, password string, _ time.Time) (*domain.User, string, error) {
	if f.failWith != nil {
		return nil, "", f.failWith
	}
	for _, u := range f.items {
		if u.Username == login || u.Email == login {
			if password != "correct horse" {
				return nil, "", service.ErrInvalidCredentials
			}
			if !u.Active {
				return nil, "", service.ErrAccountDisabled
			}
			return u, "test-token", nil
		}
	}
	return nil, "", service.ErrInvalidCredentials
}

func (f *fakeUserService) Create(_ context.Context, u *domain.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	u.ID = f.nextID
	f.nextID++
	u.Password = ""
	f.items[u.ID] = u
	return nil
}

func (f *fakeUserService) Get(_ context.Context, id int64) (*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.items[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserService) List(_ context.Context) ([]*domain.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	result := []*domain.User{}
	for _, u := range f.items {
		result = append(result, u)
	}
	return result, nil
}

func (f *fakeUserService) Update(_ context.Context, u *domain.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.items[u.ID]; !ok {
		return store.ErrUserNotFound
	}
	u.Password = ""
	f.items[u.ID] = u
	return nil
}

func (f *fakeUserService) Delete(_ context.Context, actorID, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	if actorID == id {
		return service.ErrSelfDeletion
	}
	if _, ok := f.items[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.items, id)
	return nil
}

var _ service.UserService = (*fakeUserService)(nil)
