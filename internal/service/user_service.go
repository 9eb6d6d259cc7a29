package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// UserService provides account and authentication operations.
type UserService interface {
	// Register creates a new account and issues an access token. The role
	// is always "user"; admins are promoted through Update afterwards.
	Register(ctx context.Context, user *domain.User, now time.Time) (string, error)

	// Login authenticates by username or email plus password and issues an
	// access token. Unknown users, wrong passwords, and disabled accounts
	// all fail with authentication errors.
	Login(ctx context.Context, login, password string, now time.Time) (*domain.User, string, error)

	// Create saves a user as provided, role and active flag included.
	// Used by admins; self-service signups go through Register.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves a user by id.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// List retrieves all users.
	List(ctx context.Context) ([]*domain.User, error)

	// Update persists changes to a user. A non-empty Password is hashed
	// and replaces the stored hash.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user with the given id on behalf of actorID.
	// Users cannot delete themselves.
	Delete(ctx context.Context, actorID, id int64) error
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	userStore  store.UserStore
	jwtService auth.JWTService
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	logger     *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	jwtService auth.JWTService,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if jwtService == nil {
		return nil, domain.NewValidationError("jwtService", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		userStore:  userStore,
		jwtService: jwtService,
		hasher:     hasher,
		verifier:   verifier,
		logger:     logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register.
func (s *userServiceImpl) Register(ctx context.Context, user *domain.User, now time.Time) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Role = domain.RoleUser
	user.Active = true

	if err := user.Validate(); err != nil {
		return "", err
	}
	if user.Password == "" {
		return "", domain.NewValidationError("password", "is required", nil)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return "", NewServiceError("user", "register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		return "", err
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return "", NewServiceError("user", "register", "failed to issue token", err)
	}

	log.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return token, nil
}

// Login implements UserService.Login. Unknown logins and wrong passwords
// collapse into the same error so the response doesn't reveal which one
// happened.
func (s *userServiceImpl) Login(
	ctx context.Context,
	login, password string,
	now time.Time,
) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByLogin(ctx, login)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login attempt for unknown user")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login attempt with wrong password",
			slog.Int64("user_id", user.ID))
		return nil, "", ErrInvalidCredentials
	}

	if !user.Active {
		log.Warn("login attempt for disabled account",
			slog.Int64("user_id", user.ID))
		return nil, "", ErrAccountDisabled
	}

	lastLogin := now
	user.LastLogin = &lastLogin
	user.UpdatedAt = now
	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, "", NewServiceError("user", "login", "failed to stamp last login", err)
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", NewServiceError("user", "login", "failed to issue token", err)
	}

	log.Info("user logged in", slog.Int64("user_id", user.ID))
	return user, token, nil
}

// Create implements UserService.Create.
func (s *userServiceImpl) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.Password == "" {
		return domain.NewValidationError("password", "is required", nil)
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return NewServiceError("user", "create", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	return s.userStore.Create(ctx, user)
}

// Get implements UserService.Get.
func (s *userServiceImpl) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.userStore.GetByID(ctx, id)
}

// List implements UserService.List.
func (s *userServiceImpl) List(ctx context.Context) ([]*domain.User, error) {
	return s.userStore.List(ctx)
}

// Update implements UserService.Update.
func (s *userServiceImpl) Update(ctx context.Context, user *domain.User) error {
	if user.Password != "" {
		hashed, err := s.hasher.Hash(user.Password)
		if err != nil {
			return NewServiceError("user", "update", "failed to hash password", err)
		}
		user.HashedPassword = hashed
		user.Password = ""
	}

	if err := user.Validate(); err != nil {
		return err
	}

	return s.userStore.Update(ctx, user)
}

// Delete implements UserService.Delete.
func (s *userServiceImpl) Delete(ctx context.Context, actorID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actorID == id {
		log.Warn("self-deletion attempt blocked", slog.Int64("user_id", id))
		return ErrSelfDeletion
	}

	return s.userStore.Delete(ctx, id)
}

// IsAuthError reports whether err is one of the authentication failures
// that should surface as HTTP 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountDisabled)
}
