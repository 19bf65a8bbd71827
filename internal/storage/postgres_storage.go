package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
)

// querier is the subset of *pgxpool.Pool used here.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type PostgresStorage struct {
	db  querier
	now func() time.Time
}

func NewPostgresStorage(db querier) *PostgresStorage {
	return &PostgresStorage{db: db, now: time.Now}
}

func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.db.Ping(ctx)
}

// FindEndpoint picks the latest row by update time, then creation time, then id,
// so a customer with several registrations resolves deterministically.
func (ps *PostgresStorage) FindEndpoint(ctx context.Context, customerID int64) (*model.TokenRecord, error) {
	const query = `
		SELECT id, customer_id, fcm_token, device_signature, create_timestamp, update_timestamp
		FROM notification_token
		WHERE customer_id = $1
		ORDER BY COALESCE(update_timestamp, create_timestamp) DESC NULLS LAST, id DESC
		LIMIT 1
	`

	var rec model.TokenRecord
	err := ps.db.QueryRow(ctx, query, customerID).Scan(
		&rec.ID, &rec.CustomerID, &rec.Token, &rec.DeviceSignature, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErr.NewNotFound("token for customer %d", customerID)
		}
		return nil, fmt.Errorf("find endpoint failed: %w", err)
	}
	return &rec, nil
}

// Record inserts one row into notification_message_logger.
func (ps *PostgresStorage) Record(ctx context.Context, rec *model.DeliveryRecord) error {
	if rec == nil {
		return fmt.Errorf("delivery record cannot be nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = ps.now()
	}

	const query = `
		INSERT INTO notification_message_logger
			(id, message_id, customer_id, notification_id, channel, message_type, status, error, sent_date_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := ps.db.Exec(ctx, query,
		rec.ID, rec.DeliveryID, rec.CustomerID, rec.NotificationID, rec.Channel,
		rec.Type, rec.Status, rec.Error, rec.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

var (
	_ TokenStore  = (*PostgresStorage)(nil)
	_ DeliveryLog = (*PostgresStorage)(nil)
)
