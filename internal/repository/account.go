package repository

import (
	"context"
	"time"

	"github.com/hray3182/arcana/internal/database"
	"github.com/hray3182/arcana/internal/models"
)

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetOrCreate(ctx context.Context, accountID, email string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (account_id, email) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE SET
		     email = CASE WHEN EXCLUDED.email = '' THEN accounts.email ELSE EXCLUDED.email END
		 RETURNING account_id, email, is_premium, created_at, updated_at`,
		accountID, email,
	).Scan(&account.AccountID, &account.Email, &account.IsPremium, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_id, email, is_premium, created_at, updated_at
		 FROM accounts WHERE account_id = $1`,
		accountID,
	).Scan(&account.AccountID, &account.Email, &account.IsPremium, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return account, nil
}

// IsPremium reads the account's premium flag.
func (r *AccountRepository) IsPremium(ctx context.Context, accountID string) (bool, error) {
	var premium bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT is_premium FROM accounts WHERE account_id = $1`,
		accountID,
	).Scan(&premium)
	if err != nil {
		return false, notFound(err)
	}
	return premium, nil
}

func (r *AccountRepository) SetPremium(ctx context.Context, accountID string, premium bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET is_premium = $1, updated_at = $2 WHERE account_id = $3`,
		premium, time.Now(), accountID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
