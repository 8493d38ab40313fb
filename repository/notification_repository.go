package repository

import (
	"context"

	"github.com/akinalp/boardwatch/models"
)

// NotificationRepository persists the self-hosted notification store.
//
// Lookups of a missing id return pkg.ErrNotFound; creating an existing id
// returns pkg.ErrAlreadyExists. Lists are ordered newest first.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
