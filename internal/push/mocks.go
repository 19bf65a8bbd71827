package push

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a testify mock of Gateway.
type MockGateway struct {
	mock.Mock
}

func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) Send(ctx context.Context, token string, data map[string]string, dataOnly, silent bool) (string, error) {
	args := m.Called(ctx, token, data, dataOnly, silent)
	return args.String(0), args.Error(1)
}
