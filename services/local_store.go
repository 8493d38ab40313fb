package services

import (
	"context"

	"github.com/akinalp/boardwatch/models"
)

// LocalStore exposes the in-process NotificationService to the watcher as
// its remote store, acting as one user.
type LocalStore struct {
	store  NotificationService
	userID string
}

// NewLocalStore binds store to userID.
func NewLocalStore(store NotificationService, userID string) *LocalStore {
	return &LocalStore{store: store, userID: userID}
}

func (l *LocalStore) CreateNotification(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	return l.store.Create(ctx, l.userID, &req)
}

func (l *LocalStore) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	return l.store.ListForUser(ctx, l.userID, limit, 0)
}

func (l *LocalStore) MarkNotificationRead(ctx context.Context, id string) error {
	return l.store.MarkRead(ctx, l.userID, id)
}

func (l *LocalStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := l.store.MarkAllRead(ctx, l.userID)
	return err
}
