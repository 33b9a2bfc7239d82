package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/events"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// ReimbursementService provides the reimbursement workflow. Users are
// referenced by username throughout.
type ReimbursementService interface {
	// AddReimbursement creates a pending reimbursement owned by username.
	AddReimbursement(
		ctx context.Context,
		description string,
		amount int64,
		username string,
	) (*domain.Reimbursement, error)

	// ResolveReimbursement sets the status of a reimbursement. Admin only.
	// Any valid status may replace the current one, including a previous
	// resolution. Re-applying the current status succeeds without a write.
	ResolveReimbursement(
		ctx context.Context,
		caller domain.Caller,
		reimbursementID int64,
		status string,
	) (*domain.Reimbursement, error)

	// GetAllReimbursements lists every reimbursement. Admin only.
	GetAllReimbursements(ctx context.Context, caller domain.Caller) ([]*domain.Reimbursement, error)

	// GetAllPendingReimbursements lists every pending reimbursement. Admin only.
	GetAllPendingReimbursements(ctx context.Context, caller domain.Caller) ([]*domain.Reimbursement, error)

	// GetUserReimbursements lists the reimbursements owned by username.
	GetUserReimbursements(ctx context.Context, username string) ([]*domain.Reimbursement, error)

	// GetPendingUserReimbursements lists the pending reimbursements owned by username.
	GetPendingUserReimbursements(ctx context.Context, username string) ([]*domain.Reimbursement, error)

	// GetTotalPendingAmount sums the amounts of username's pending reimbursements.
	GetTotalPendingAmount(ctx context.Context, username string) (int64, error)
}

type reimbursementServiceImpl struct {
	users          store.UserStore
	reimbursements store.ReimbursementStore
	tx             store.TxManager
	emitter        events.EventEmitter
	logger         *slog.Logger
}

// NewReimbursementService creates a new ReimbursementService.
// It returns an error if any required dependency is nil.
func NewReimbursementService(
	users store.UserStore,
	reimbursements store.ReimbursementStore,
	tx store.TxManager,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ReimbursementService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if reimbursements == nil {
		return nil, domain.NewValidationError("reimbursements", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reimbursementServiceImpl{
		users:          users,
		reimbursements: reimbursements,
		tx:             tx,
		emitter:        emitter,
		logger:         logger.With(slog.String("component", "reimbursement_service")),
	}, nil
}

// AddReimbursement implements ReimbursementService.
func (s *reimbursementServiceImpl) AddReimbursement(
	ctx context.Context,
	description string,
	amount int64,
	username string,
) (*domain.Reimbursement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	owner, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	r, err := domain.NewReimbursement(description, amount, owner.ID)
	if err != nil {
		return nil, wrapError(ErrInvalidInput, err.Error(), err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		return stores.Reimbursements.Create(ctx, r)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, userNotFoundByUsername(username)
		}
		log.Error("failed to save reimbursement",
			slog.Int64("user_id", owner.ID),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to add reimbursement: %w", err)
	}
	r.Username = owner.Username

	log.Info("reimbursement created",
		slog.Int64("reimbursement_id", r.ID),
		slog.Int64("user_id", owner.ID),
		slog.Int64("amount", r.Amount))

	emitEvent(ctx, s.emitter, log, events.TypeReimbursementCreated, events.ReimbursementPayload{
		ReimbursementID: r.ID,
		UserID:          r.UserID,
		Username:        r.Username,
		Amount:          r.Amount,
		Status:          string(r.Status),
	})

	return r, nil
}

// ResolveReimbursement implements ReimbursementService.
// The row is read with GetByIDForUpdate so concurrent resolutions serialize.
func (s *reimbursementServiceImpl) ResolveReimbursement(
	ctx context.Context,
	caller domain.Caller,
	reimbursementID int64,
	status string,
) (*domain.Reimbursement, error) {
	if err := Authorize(caller, CapabilityAdmin); err != nil {
		return nil, err
	}

	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, wrapError(ErrInvalidStatus, "Invalid status", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		resolved *domain.Reimbursement
		previous domain.Status
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		r, err := stores.Reimbursements.GetByIDForUpdate(ctx, reimbursementID)
		if err != nil {
			return err
		}

		previous = r.Status
		if err := r.Resolve(next); err != nil {
			return err
		}

		if r.Status == previous {
			resolved = r
			return nil
		}

		if err := stores.Reimbursements.UpdateStatus(ctx, r); err != nil {
			return err
		}

		resolved, err = stores.Reimbursements.GetByID(ctx, r.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrReimbursementNotFound) {
			return nil, reimbursementNotFound(reimbursementID)
		}
		log.Error("failed to resolve reimbursement",
			slog.Int64("reimbursement_id", reimbursementID),
			slog.String("status", status),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to resolve reimbursement: %w", err)
	}

	if previous == resolved.Status {
		log.Debug("reimbursement already in requested status",
			slog.Int64("reimbursement_id", reimbursementID),
			slog.String("status", string(previous)))
		return resolved, nil
	}

	log.Info("reimbursement resolved",
		slog.Int64("reimbursement_id", resolved.ID),
		slog.String("previous_status", string(previous)),
		slog.String("status", string(resolved.Status)),
		slog.Int64("actor_id", caller.UserID))

	emitEvent(ctx, s.emitter, log, events.TypeReimbursementResolved, events.ReimbursementPayload{
		ReimbursementID: resolved.ID,
		UserID:          resolved.UserID,
		Username:        resolved.Username,
		Amount:          resolved.Amount,
		Status:          string(resolved.Status),
		PreviousStatus:  string(previous),
		ActorID:         caller.UserID,
	})

	return resolved, nil
}

// GetAllReimbursements implements ReimbursementService.
func (s *reimbursementServiceImpl) GetAllReimbursements(
	ctx context.Context,
	caller domain.Caller,
) ([]*domain.Reimbursement, error) {
	if err := Authorize(caller, CapabilityAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, store.ReimbursementFilter{})
}

// GetAllPendingReimbursements implements ReimbursementService.
func (s *reimbursementServiceImpl) GetAllPendingReimbursements(
	ctx context.Context,
	caller domain.Caller,
) ([]*domain.Reimbursement, error) {
	if err := Authorize(caller, CapabilityAdmin); err != nil {
		return nil, err
	}
	pending := domain.StatusPending
	return s.list(ctx, store.ReimbursementFilter{Status: &pending})
}

// GetUserReimbursements implements ReimbursementService.
func (s *reimbursementServiceImpl) GetUserReimbursements(
	ctx context.Context,
	username string,
) ([]*domain.Reimbursement, error) {
	owner, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, store.ReimbursementFilter{UserID: &owner.ID})
}

// GetPendingUserReimbursements implements ReimbursementService.
func (s *reimbursementServiceImpl) GetPendingUserReimbursements(
	ctx context.Context,
	username string,
) ([]*domain.Reimbursement, error) {
	owner, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	pending := domain.StatusPending
	return s.list(ctx, store.ReimbursementFilter{UserID: &owner.ID, Status: &pending})
}

// GetTotalPendingAmount implements ReimbursementService.
func (s *reimbursementServiceImpl) GetTotalPendingAmount(ctx context.Context, username string) (int64, error) {
	owner, err := s.resolveUser(ctx, username)
	if err != nil {
		return 0, err
	}

	total, err := s.reimbursements.SumAmount(ctx, owner.ID, domain.StatusPending)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to sum pending amounts",
			slog.Int64("user_id", owner.ID),
			slog.Any("error", err))
		return 0, fmt.Errorf("failed to total pending amount: %w", err)
	}
	return total, nil
}

func (s *reimbursementServiceImpl) list(
	ctx context.Context,
	filter store.ReimbursementFilter,
) ([]*domain.Reimbursement, error) {
	list, err := s.reimbursements.List(ctx, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list reimbursements",
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to list reimbursements: %w", err)
	}
	return list, nil
}

// resolveUser maps a username to its user. Blank and unknown usernames both
// fail with ErrUserNotFound.
func (s *reimbursementServiceImpl) resolveUser(
	ctx context.Context,
	username string,
) (*domain.User, error) {
	if isBlank(username) {
		return nil, newError(ErrUserNotFound, "Please provide a valid username!")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, userNotFoundByUsername(username)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to resolve username",
			slog.String("username", username),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}
