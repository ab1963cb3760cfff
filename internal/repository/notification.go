package repository

import (
	"context"

	"github.com/hray3182/arcana/internal/database"
	"github.com/hray3182/arcana/internal/models"
)

// NotificationRepository is the per-account notification log.
type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO notifications (account_id, title, message, type, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING notification_id`,
		n.AccountID, n.Title, n.Message, string(n.Type), n.IsRead, n.CreatedAt,
	).Scan(&n.NotificationID)
}

func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT notification_id, account_id, title, message, type, is_read, created_at
		 FROM notifications WHERE account_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var typ string
		if err := rows.Scan(&n.NotificationID, &n.AccountID, &n.Title, &n.Message, &typ, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND is_read = FALSE`,
		accountID,
	).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE account_id = $1 AND is_read = FALSE`,
		accountID,
	)
	return err
}
