package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/store"
)

const reimbursementSelect = `
	SELECT r.id, r.description, r.amount, r.status, r.user_id, u.username, r.created_at, r.updated_at
	FROM reimbursements r
	JOIN users u ON u.id = r.user_id`

// ReimbursementStore implements store.ReimbursementStore on database/sql.
type ReimbursementStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewReimbursementStore creates a ReimbursementStore using db, which may be a *sql.DB or *sql.Tx.
// If logger is nil, a default logger will be used.
func NewReimbursementStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *ReimbursementStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReimbursementStore{
		db:      db,
		dialect: dialect,
		logger: logger.With(
			slog.String("component", "reimbursement_store"),
			slog.String("dialect", dialect.Name()),
		),
	}
}

var _ store.ReimbursementStore = (*ReimbursementStore)(nil)

// WithTx implements store.ReimbursementStore.WithTx.
func (s *ReimbursementStore) WithTx(tx *sql.Tx) store.ReimbursementStore {
	return &ReimbursementStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

// Create implements store.ReimbursementStore.Create.
func (s *ReimbursementStore) Create(ctx context.Context, r *domain.Reimbursement) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reimbursements (description, amount, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		r.Description,
		r.Amount,
		string(r.Status),
		r.UserID,
		r.CreatedAt,
		r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		mapped := mapError(s.dialect, err)
		if errors.Is(mapped, store.ErrInvalidEntity) {
			// Only the owner FK can fail once the entity has validated.
			log.Debug("reimbursement owner missing", slog.Int64("user_id", r.UserID))
			return store.ErrUserNotFound
		}
		log.Error("failed to create reimbursement", slog.String("error", err.Error()))
		return mapped
	}

	log.Debug("reimbursement created",
		slog.Int64("reimbursement_id", r.ID),
		slog.Int64("user_id", r.UserID))
	return nil
}

// GetByID implements store.ReimbursementStore.GetByID.
func (s *ReimbursementStore) GetByID(ctx context.Context, id int64) (*domain.Reimbursement, error) {
	return s.getByID(ctx, id, "")
}

// GetByIDForUpdate implements store.ReimbursementStore.GetByIDForUpdate.
func (s *ReimbursementStore) GetByIDForUpdate(
	ctx context.Context,
	id int64,
) (*domain.Reimbursement, error) {
	return s.getByID(ctx, id, s.dialect.LockClause())
}

func (s *ReimbursementStore) getByID(
	ctx context.Context,
	id int64,
	lock string,
) (*domain.Reimbursement, error) {
	query := reimbursementSelect + ` WHERE r.id = $1`
	if lock != "" {
		query += " " + lock
	}

	r, err := scanReimbursement(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReimbursementNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to read reimbursement",
			slog.Int64("reimbursement_id", id),
			slog.String("error", err.Error()))
		return nil, mapError(s.dialect, err)
	}
	return r, nil
}

// UpdateStatus implements store.ReimbursementStore.UpdateStatus.
func (s *ReimbursementStore) UpdateStatus(ctx context.Context, r *domain.Reimbursement) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !r.Status.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidStatus)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE reimbursements SET status = $1, updated_at = $2 WHERE id = $3`,
		string(r.Status), r.UpdatedAt, r.ID)
	if err != nil {
		log.Error("failed to update reimbursement status",
			slog.Int64("reimbursement_id", r.ID),
			slog.String("error", err.Error()))
		return mapError(s.dialect, err)
	}

	if err := checkRowsAffected(result, store.ErrReimbursementNotFound); err != nil {
		return err
	}

	log.Debug("reimbursement status updated",
		slog.Int64("reimbursement_id", r.ID),
		slog.String("status", string(r.Status)))
	return nil
}

// List implements store.ReimbursementStore.List.
func (s *ReimbursementStore) List(
	ctx context.Context,
	filter store.ReimbursementFilter,
) ([]*domain.Reimbursement, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}

	query := reimbursementSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list reimbursements",
			slog.String("error", err.Error()))
		return nil, mapError(s.dialect, err)
	}
	defer func() { _ = rows.Close() }()

	list := make([]*domain.Reimbursement, 0)
	for rows.Next() {
		r, err := scanReimbursement(rows)
		if err != nil {
			return nil, mapError(s.dialect, err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(s.dialect, err)
	}
	return list, nil
}

// SumAmount implements store.ReimbursementStore.SumAmount.
func (s *ReimbursementStore) SumAmount(
	ctx context.Context,
	userID int64,
	status domain.Status,
) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM reimbursements
		WHERE user_id = $1 AND status = $2`,
		userID, string(status),
	).Scan(&total)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to sum reimbursements",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return 0, mapError(s.dialect, err)
	}
	return total, nil
}

// DeleteByUser implements store.ReimbursementStore.DeleteByUser.
func (s *ReimbursementStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reimbursements WHERE user_id = $1`, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete reimbursements",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return 0, mapError(s.dialect, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", store.ErrInternal, err)
	}
	return n, nil
}

func scanReimbursement(row rowScanner) (*domain.Reimbursement, error) {
	var (
		r      domain.Reimbursement
		status string
	)
	if err := row.Scan(
		&r.ID,
		&r.Description,
		&r.Amount,
		&status,
		&r.UserID,
		&r.Username,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = domain.Status(status)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
