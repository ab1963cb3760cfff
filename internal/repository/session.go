package repository

import (
	"context"
	"errors"

	"github.com/hray3182/arcana/internal/database"
	"github.com/hray3182/arcana/internal/models"
)

// SessionRepository records which account is signed in on which device.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Current returns the account signed in on deviceID, or ok=false when the
// device is signed out.
func (r *SessionRepository) Current(ctx context.Context, deviceID string) (accountID string, ok bool, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT account_id FROM device_sessions WHERE device_id = $1`,
		deviceID,
	).Scan(&accountID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return accountID, true, nil
}

func (r *SessionRepository) Get(ctx context.Context, deviceID string) (*models.Session, error) {
	s := &models.Session{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT device_id, account_id, signed_in_at FROM device_sessions WHERE device_id = $1`,
		deviceID,
	).Scan(&s.DeviceID, &s.AccountID, &s.SignedInAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *SessionRepository) SignIn(ctx context.Context, deviceID, accountID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO device_sessions (device_id, account_id, signed_in_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (device_id) DO UPDATE SET account_id = EXCLUDED.account_id, signed_in_at = NOW()`,
		deviceID, accountID,
	)
	return err
}

func (r *SessionRepository) SignOut(ctx context.Context, deviceID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM device_sessions WHERE device_id = $1`,
		deviceID,
	)
	return err
}
