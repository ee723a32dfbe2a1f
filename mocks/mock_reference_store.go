package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veridoc/internal/domain"
)

// MockReferenceStore is a mock implementation of port.ReferenceStore.
type MockReferenceStore struct {
	mock.Mock
}

func (m *MockReferenceStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ReferenceRecord, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceRecord), args.Error(1)
}

func (m *MockReferenceStore) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.ReferenceRecord, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceRecord), args.Error(1)
}

func (m *MockReferenceStore) ListGlobal(ctx context.Context) ([]domain.ReferenceRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceRecord), args.Error(1)
}
