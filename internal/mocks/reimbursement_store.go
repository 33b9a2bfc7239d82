package mocks

import (
	"context"
	"database/sql"

	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockReimbursementStore is a mock of store.ReimbursementStore for use with testify/mock
type MockReimbursementStore struct {
	mock.Mock
}

var _ store.ReimbursementStore = (*MockReimbursementStore)(nil)

func (m *MockReimbursementStore) Create(ctx context.Context, r *domain.Reimbursement) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReimbursementStore) GetByID(ctx context.Context, id int64) (*domain.Reimbursement, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*domain.Reimbursement); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReimbursementStore) GetByIDForUpdate(
	ctx context.Context,
	id int64,
) (*domain.Reimbursement, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*domain.Reimbursement); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReimbursementStore) UpdateStatus(ctx context.Context, r *domain.Reimbursement) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReimbursementStore) List(
	ctx context.Context,
	filter store.ReimbursementFilter,
) ([]*domain.Reimbursement, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]*domain.Reimbursement); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReimbursementStore) SumAmount(
	ctx context.Context,
	userID int64,
	status domain.Status,
) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReimbursementStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// WithTx returns m so expectations set on the mock apply inside transactions too.
func (m *MockReimbursementStore) WithTx(*sql.Tx) store.ReimbursementStore {
	return m
}
