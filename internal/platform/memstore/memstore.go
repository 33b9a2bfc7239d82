// Package memstore is an in-memory implementation of the store interfaces.
// It backs the "memory" database driver and service-level tests.
//
// Transactions are serialized and rolled back by restoring a snapshot, so
// reads made outside WithinTx may observe writes of a transaction that later
// rolls back.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// DB holds the users and reimbursements tables.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users          map[int64]domain.User
	reimbursements map[int64]domain.Reimbursement
	lastUserID     int64
	lastReimbID    int64
}

// New creates an empty database.
func New() *DB {
	return &DB{
		users:          make(map[int64]domain.User),
		reimbursements: make(map[int64]domain.Reimbursement),
	}
}

// Users returns a store.UserStore backed by db.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Reimbursements returns a store.ReimbursementStore backed by db.
func (db *DB) Reimbursements() *ReimbursementStore { return &ReimbursementStore{db: db} }

// TxManager returns a store.TxManager backed by db.
func (db *DB) TxManager() *TxManager { return &TxManager{db: db} }

type snapshot struct {
	users          map[int64]domain.User
	reimbursements map[int64]domain.Reimbursement
	lastUserID     int64
	lastReimbID    int64
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := snapshot{
		users:          make(map[int64]domain.User, len(db.users)),
		reimbursements: make(map[int64]domain.Reimbursement, len(db.reimbursements)),
		lastUserID:     db.lastUserID,
		lastReimbID:    db.lastReimbID,
	}
	for id, u := range db.users {
		s.users[id] = u
	}
	for id, r := range db.reimbursements {
		s.reimbursements[id] = r
	}
	return s
}

// restore rolls the tables back. ID counters are kept so generated IDs are never reused.
func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = s.users
	db.reimbursements = s.reimbursements
}

// TxManager implements store.TxManager for DB.
type TxManager struct {
	db *DB
}

var _ store.TxManager = (*TxManager)(nil)

// WithinTx implements store.TxManager. Transactions run one at a time.
func (m *TxManager) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, stores store.Stores) error,
) (err error) {
	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()

	before := m.db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.db.restore(before)
			panic(p)
		}
		if err != nil {
			m.db.restore(before)
		}
	}()

	return fn(ctx, store.Stores{
		Users:          m.db.Users(),
		Reimbursements: m.db.Reimbursements(),
	})
}

// UserStore implements store.UserStore for DB.
type UserStore struct {
	db *DB
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx returns s; the memory store has no SQL transactions.
func (s *UserStore) WithTx(*sql.Tx) store.UserStore { return s }

// Create implements store.UserStore.
func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	if user.PasswordHash == "" {
		return store.NewStoreError("user", "create", "password hash is required", store.ErrInvalidEntity)
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if existing.Username == user.Username {
			return store.ErrUsernameExists
		}
	}

	s.db.lastUserID++
	user.ID = s.db.lastUserID

	stored := *user
	stored.Password = ""
	s.db.users[stored.ID] = stored
	return nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// GetByUsername implements store.UserStore.
func (s *UserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// FindByUsernamePrefix implements store.UserStore.
func (s *UserStore) FindByUsernamePrefix(_ context.Context, prefix string) ([]*domain.User, error) {
	return s.collect(func(u domain.User) bool {
		return strings.HasPrefix(u.Username, prefix)
	}), nil
}

// List implements store.UserStore.
func (s *UserStore) List(_ context.Context) ([]*domain.User, error) {
	return s.collect(func(domain.User) bool { return true }), nil
}

// Delete implements store.UserStore. Like the SQL schema's ON DELETE CASCADE,
// it also removes the user's reimbursements.
func (s *UserStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.users, id)
	for rid, r := range s.db.reimbursements {
		if r.UserID == id {
			delete(s.db.reimbursements, rid)
		}
	}
	return nil
}

func (s *UserStore) collect(match func(domain.User) bool) []*domain.User {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	users := make([]*domain.User, 0)
	for _, u := range s.db.users {
		if match(u) {
			found := u
			users = append(users, &found)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// ReimbursementStore implements store.ReimbursementStore for DB.
type ReimbursementStore struct {
	db *DB
}

var _ store.ReimbursementStore = (*ReimbursementStore)(nil)

// WithTx returns s; the memory store has no SQL transactions.
func (s *ReimbursementStore) WithTx(*sql.Tx) store.ReimbursementStore { return s }

// Create implements store.ReimbursementStore.
func (s *ReimbursementStore) Create(_ context.Context, r *domain.Reimbursement) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[r.UserID]; !ok {
		return store.ErrUserNotFound
	}

	s.db.lastReimbID++
	r.ID = s.db.lastReimbID

	stored := *r
	stored.Username = ""
	s.db.reimbursements[stored.ID] = stored
	return nil
}

// GetByID implements store.ReimbursementStore.
func (s *ReimbursementStore) GetByID(_ context.Context, id int64) (*domain.Reimbursement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	r, ok := s.db.reimbursements[id]
	if !ok {
		return nil, store.ErrReimbursementNotFound
	}
	return s.project(r), nil
}

// GetByIDForUpdate implements store.ReimbursementStore. Row locking is
// unnecessary because WithinTx already serializes transactions.
func (s *ReimbursementStore) GetByIDForUpdate(
	ctx context.Context,
	id int64,
) (*domain.Reimbursement, error) {
	return s.GetByID(ctx, id)
}

// UpdateStatus implements store.ReimbursementStore.
func (s *ReimbursementStore) UpdateStatus(_ context.Context, r *domain.Reimbursement) error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidStatus)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	stored, ok := s.db.reimbursements[r.ID]
	if !ok {
		return store.ErrReimbursementNotFound
	}
	stored.Status = r.Status
	stored.UpdatedAt = r.UpdatedAt
	s.db.reimbursements[r.ID] = stored
	return nil
}

// List implements store.ReimbursementStore.
func (s *ReimbursementStore) List(
	_ context.Context,
	filter store.ReimbursementFilter,
) ([]*domain.Reimbursement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	list := make([]*domain.Reimbursement, 0)
	for _, r := range s.db.reimbursements {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		list = append(list, s.project(r))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// SumAmount implements store.ReimbursementStore.
func (s *ReimbursementStore) SumAmount(
	_ context.Context,
	userID int64,
	status domain.Status,
) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var total int64
	for _, r := range s.db.reimbursements {
		if r.UserID != userID || r.Status != status {
			continue
		}
		if r.Amount > 0 && total > math.MaxInt64-r.Amount {
			return 0, fmt.Errorf("%w: amount total for user %d overflows", store.ErrInternal, userID)
		}
		total += r.Amount
	}
	return total, nil
}

// DeleteByUser implements store.ReimbursementStore.
func (s *ReimbursementStore) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var n int64
	for id, r := range s.db.reimbursements {
		if r.UserID == userID {
			delete(s.db.reimbursements, id)
			n++
		}
	}
	return n, nil
}

// project copies r and fills in the owner's username. Callers hold db.mu.
func (s *ReimbursementStore) project(r domain.Reimbursement) *domain.Reimbursement {
	if owner, ok := s.db.users[r.UserID]; ok {
		r.Username = owner.Username
	}
	return &r
}
