package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"veridoc/internal/port"
)

// MockSignatureComparer is a mock implementation of port.SignatureComparer.
type MockSignatureComparer struct {
	mock.Mock
}

func (m *MockSignatureComparer) Compare(ctx context.Context, input port.CompareInput) (*port.CompareOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CompareOutput), args.Error(1)
}
