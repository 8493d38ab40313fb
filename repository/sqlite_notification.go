package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/akinalp/boardwatch/database"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
)

const notificationColumns = `id, user_id, message, from_user, create_at, is_read, link, board_id, card_id`

type sqliteNotificationRepo struct {
	db *sqlx.DB
}

// NewSQLiteNotificationRepo returns the SQLite NotificationRepository.
func NewSQLiteNotificationRepo(db *sqlx.DB) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :message, :from_user, :create_at, :is_read, :link, :board_id, :card_id)`

	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: notification %s", pkg.ErrAlreadyExists, n.ID)
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *sqliteNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *sqliteNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = ?
		ORDER BY create_at DESC, id
		LIMIT ? OFFSET ?`

	notifications := []models.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *sqliteNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *sqliteNotificationRepo) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireAffected(result)
}

// MarkAllRead flips every unread notification of the user in one
// transaction and returns how many changed.
func (r *sqliteNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var changed int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
		if err != nil {
			return err
		}
		changed, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return changed, nil
}

func (r *sqliteNotificationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteNotificationRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.RowsAffected()
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
