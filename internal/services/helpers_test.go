package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"opspulse/internal/dataprocessing"
	"opspulse/pkg/contracts/domain"
)

// MockNotifier is a mock for the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Broadcast(_ context.Context, msgType string, data any) {
	m.Called(msgType, data)
}

// MockRowSource is a mock for source.RowSource
type MockRowSource struct {
	mock.Mock
}

func (m *MockRowSource) Fetch(ctx context.Context, kind domain.SheetKind) (*dataprocessing.Sheet, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataprocessing.Sheet), args.Error(1)
}
