package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	row      pgx.Row
	execErr  error
	pingErr  error
	lastSQL  string
	lastArgs []any
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func TestPostgresStorage_FindEndpoint(t *testing.T) {
	token := "tok-123"
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		row          pgx.Row
		wantToken    *string
		wantNotFound bool
		wantErr      bool
	}{
		{
			name: "row found",
			row: fakeRow{scan: func(dest ...any) error {
				*dest[0].(*int64) = 9
				*dest[1].(*int64) = 42
				*dest[2].(**string) = &token
				*dest[5].(**time.Time) = &updated
				return nil
			}},
			wantToken: &token,
		},
		{
			name:         "no rows",
			row:          fakeRow{scan: func(...any) error { return pgx.ErrNoRows }},
			wantNotFound: true,
			wantErr:      true,
		},
		{
			name:    "driver failure",
			row:     fakeRow{scan: func(...any) error { return errors.New("conn reset") }},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: tt.row}
			ps := NewPostgresStorage(db)

			rec, err := ps.FindEndpoint(context.Background(), 42)
			assert.Equal(t, []any{int64(42)}, db.lastArgs)
			assert.Contains(t, db.lastSQL, "ORDER BY COALESCE(update_timestamp, create_timestamp) DESC")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, rec)
				assert.Equal(t, tt.wantNotFound, appErr.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), rec.CustomerID)
			assert.Equal(t, tt.wantToken, rec.Token)
			assert.Equal(t, &updated, rec.UpdatedAt)
		})
	}
}

func TestPostgresStorage_Record(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &fakeDB{}
	ps := NewPostgresStorage(db)
	ps.now = func() time.Time { return fixed }

	rec := &model.DeliveryRecord{
		DeliveryID: "projects/x/messages/1",
		CustomerID: "42",
		Channel:    "INAPP",
		Type:       "MESSAGE",
		Status:     model.DeliverySuccess,
	}
	require.NoError(t, ps.Record(context.Background(), rec))

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, fixed, rec.SentAt)
	require.Len(t, db.lastArgs, 9)
	assert.Equal(t, "MESSAGE", db.lastArgs[5])
	assert.Equal(t, model.DeliverySuccess, db.lastArgs[6])

	db.execErr = errors.New("disk full")
	assert.ErrorContains(t, ps.Record(context.Background(), &model.DeliveryRecord{}), "disk full")
	assert.Error(t, ps.Record(context.Background(), nil))
}

func TestPostgresStorage_Ping(t *testing.T) {
	ps := NewPostgresStorage(&fakeDB{pingErr: errors.New("down")})
	assert.EqualError(t, ps.Ping(context.Background()), "down")
}
