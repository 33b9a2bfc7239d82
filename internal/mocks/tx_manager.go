package mocks

import (
	"context"

	"github.com/phrazzld/reimburse-api/internal/store"
)

// MockTxManager implements store.TxManager without a database. WithinTx
// passes Stores straight to the callback.
type MockTxManager struct {
	Stores store.Stores

	// BeginErr, when set, is returned before the callback runs.
	BeginErr error

	// Calls counts WithinTx invocations.
	Calls int
	// RolledBack counts callbacks that returned an error.
	RolledBack int
}

var _ store.TxManager = (*MockTxManager)(nil)

// NewMockTxManager creates a MockTxManager over the given stores.
func NewMockTxManager(users store.UserStore, reimbursements store.ReimbursementStore) *MockTxManager {
	return &MockTxManager{
		Stores: store.Stores{Users: users, Reimbursements: reimbursements},
	}
}

// WithinTx implements store.TxManager.
func (m *MockTxManager) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, stores store.Stores) error,
) error {
	m.Calls++
	if m.BeginErr != nil {
		return m.BeginErr
	}
	if err := fn(ctx, m.Stores); err != nil {
		m.RolledBack++
		return err
	}
	return nil
}
