package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/store"
)

const userColumns = `id, first_name, last_name, username, password_hash, role, created_at, updated_at`

// UserStore implements store.UserStore on database/sql.
type UserStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewUserStore creates a UserStore using db, which may be a *sql.DB or *sql.Tx.
// If logger is nil, a default logger will be used.
func NewUserStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserStore{
		db:      db,
		dialect: dialect,
		logger: logger.With(
			slog.String("component", "user_store"),
			slog.String("dialect", dialect.Name()),
		),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.PasswordHash == "" {
		return store.NewStoreError("user", "create", "password hash is required", store.ErrInvalidEntity)
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		user.FirstName,
		user.LastName,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		mapped := mapError(s.dialect, err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Debug("username already exists", slog.String("username", user.Username))
			return store.ErrUsernameExists
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return mapped
	}

	log.Debug("user created", slog.Int64("user_id", user.ID))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanOne(ctx, row)
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return s.scanOne(ctx, row)
}

// FindByUsernamePrefix implements store.UserStore.FindByUsernamePrefix.
func (s *UserStore) FindByUsernamePrefix(ctx context.Context, prefix string) ([]*domain.User, error) {
	return s.query(ctx,
		`SELECT `+userColumns+` FROM users WHERE username LIKE $1 ESCAPE '\' ORDER BY id`,
		prefixPattern(prefix))
}

// List implements store.UserStore.List.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	return s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// Delete implements store.UserStore.Delete.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()))
		return mapError(s.dialect, err)
	}

	if err := checkRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Debug("user deleted", slog.Int64("user_id", id))
	return nil
}

func (s *UserStore) scanOne(ctx context.Context, row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to read user",
			slog.String("error", err.Error()))
		return nil, mapError(s.dialect, err)
	}
	return user, nil
}

func (s *UserStore) query(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query users",
			slog.String("error", err.Error()))
		return nil, mapError(s.dialect, err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapError(s.dialect, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(s.dialect, err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
