package storage

import (
	"context"

	"github.com/samims/notifyd/internal/model"
)

// TokenStore reads push endpoints registered by customers.
type TokenStore interface {
	Ping(ctx context.Context) error
	// FindEndpoint returns the most recently registered token record for the customer,
	// or an error wrapping errors.ErrNotFound.
	FindEndpoint(ctx context.Context, customerID int64) (*model.TokenRecord, error)
}

// DeliveryLog records push send attempts.
type DeliveryLog interface {
	Record(ctx context.Context, rec *model.DeliveryRecord) error
}
