package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/samims/notifyd/internal/model"
)

// MockTokenStore is a testify mock of TokenStore.
type MockTokenStore struct {
	mock.Mock
}

// NewMockTokenStore registers an expectation check on test cleanup.
func NewMockTokenStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenStore {
	m := &MockTokenStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTokenStore) FindEndpoint(ctx context.Context, customerID int64) (*model.TokenRecord, error) {
	args := m.Called(ctx, customerID)
	rec, _ := args.Get(0).(*model.TokenRecord)
	return rec, args.Error(1)
}

// MockDeliveryLog is a testify mock of DeliveryLog.
type MockDeliveryLog struct {
	mock.Mock
}

func NewMockDeliveryLog(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDeliveryLog {
	m := &MockDeliveryLog{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDeliveryLog) Record(ctx context.Context, rec *model.DeliveryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
