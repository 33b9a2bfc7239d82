package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/events"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// Registration carries the fields needed to register a user.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// UserService provides user registration, lookup and deletion.
type UserService interface {
	// RegisterUser creates a user. A taken username fails with ErrDuplicateUsername
	// before any other field is checked.
	RegisterUser(ctx context.Context, reg Registration) (*domain.User, error)

	// Authenticate verifies a username and password and returns the user.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// GetUserByUsername retrieves a user by exact username.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetUsersByUsernamePrefix returns every user whose username starts with prefix.
	// An empty result fails with ErrUserNotFound.
	GetUsersByUsernamePrefix(ctx context.Context, prefix string) ([]*domain.User, error)

	// GetAllUsers lists every user. Admin only.
	GetAllUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error)

	// DeleteUser removes a user and all of its reimbursements, returning the deleted user.
	// Admin only.
	DeleteUser(ctx context.Context, caller domain.Caller, userID int64) (*domain.User, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	users   store.UserStore
	tx      store.TxManager
	hasher  auth.PasswordHasher
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
// It returns an error if any required dependency is nil. A nil emitter
// discards events and a nil logger falls back to slog.Default().
func NewUserService(
	users store.UserStore,
	tx store.TxManager,
	hasher auth.PasswordHasher,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		users:   users,
		tx:      tx,
		hasher:  hasher,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "user_service")),
	}, nil
}

// RegisterUser implements UserService.
func (s *userServiceImpl) RegisterUser(ctx context.Context, reg Registration) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !isBlank(reg.Username) {
		_, err := s.users.GetByUsername(ctx, reg.Username)
		switch {
		case err == nil:
			log.Debug("registration rejected: username taken", slog.String("username", reg.Username))
			return nil, newError(ErrDuplicateUsername, "Username already exists!")
		case !errors.Is(err, store.ErrUserNotFound):
			log.Error("failed to check username availability",
				slog.String("username", reg.Username),
				slog.Any("error", err))
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}

	user, err := domain.NewUser(reg.FirstName, reg.LastName, reg.Username, reg.Password, reg.Role)
	if err != nil {
		return nil, wrapError(ErrInvalidInput, err.Error(), err)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	user.PasswordHash = hash
	user.Password = ""

	err = s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		return stores.Users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, wrapError(ErrDuplicateUsername, "Username already exists!", err)
		}
		log.Error("failed to save user",
			slog.String("username", user.Username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role))

	s.emit(ctx, events.TypeUserRegistered, events.UserPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})

	return user, nil
}

// Authenticate implements UserService.
func (s *userServiceImpl) Authenticate(
	ctx context.Context,
	username, password string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if isBlank(username) {
		return nil, wrapError(ErrInvalidInput, domain.ErrEmptyUsername.Error(), domain.ErrEmptyUsername)
	}
	if isBlank(password) {
		return nil, wrapError(ErrInvalidInput, domain.ErrEmptyPassword.Error(), domain.ErrEmptyPassword)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login failed: unknown username", slog.String("username", username))
			return nil, newError(ErrInvalidCredentials, "Invalid username or password")
		}
		log.Error("failed to load user for login",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		log.Debug("login failed: password mismatch", slog.Int64("user_id", user.ID))
		return nil, newError(ErrInvalidCredentials, "Invalid username or password")
	}

	return user, nil
}

// GetUserByUsername implements UserService.
func (s *userServiceImpl) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if isBlank(username) {
		return nil, wrapError(ErrInvalidInput, domain.ErrEmptyUsername.Error(), domain.ErrEmptyUsername)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, userNotFoundByUsername(username)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user by username",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// GetUsersByUsernamePrefix implements UserService.
func (s *userServiceImpl) GetUsersByUsernamePrefix(
	ctx context.Context,
	prefix string,
) ([]*domain.User, error) {
	if isBlank(prefix) {
		return nil, newError(ErrInvalidInput, "Please search for a valid username!")
	}

	users, err := s.users.FindByUsernamePrefix(ctx, prefix)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to search users",
			slog.String("prefix", prefix),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	if len(users) == 0 {
		return nil, newError(ErrUserNotFound, fmt.Sprintf("No users found with username starting with: %s", prefix))
	}

	return users, nil
}

// GetAllUsers implements UserService.
func (s *userServiceImpl) GetAllUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	if err := Authorize(caller, CapabilityAdmin); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser implements UserService.
// The user's reimbursements are deleted first, in the same transaction.
func (s *userServiceImpl) DeleteUser(
	ctx context.Context,
	caller domain.Caller,
	userID int64,
) (*domain.User, error) {
	if err := Authorize(caller, CapabilityAdmin); err != nil {
		return nil, err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		deleted *domain.User
		removed int64
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		user, err := stores.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		removed, err = stores.Reimbursements.DeleteByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete reimbursements: %w", err)
		}

		if err := stores.Users.Delete(ctx, userID); err != nil {
			return err
		}

		deleted = user
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, userNotFoundByID(userID)
		}
		log.Error("failed to delete user",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted",
		slog.Int64("user_id", deleted.ID),
		slog.Int64("actor_id", caller.UserID),
		slog.Int64("reimbursements_removed", removed))

	s.emit(ctx, events.TypeUserDeleted, events.UserPayload{
		UserID:                deleted.ID,
		Username:              deleted.Username,
		Role:                  deleted.Role,
		ActorID:               caller.UserID,
		ReimbursementsRemoved: removed,
	})

	return deleted, nil
}

// emit publishes an event after a committed write. Failures are logged, not returned.
func (s *userServiceImpl) emit(ctx context.Context, eventType string, payload any) {
	emitEvent(ctx, s.emitter, logger.FromContextOrDefault(ctx, s.logger), eventType, payload)
}

func emitEvent(
	ctx context.Context,
	emitter events.EventEmitter,
	log *slog.Logger,
	eventType string,
	payload any,
) {
	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event", slog.String("event_type", eventType), slog.Any("error", err))
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err))
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
