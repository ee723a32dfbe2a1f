package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockImageFetcher is a mock implementation of port.ImageFetcher.
type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
