package services

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/repository"
)

// DefaultListLimit is the page size of ListForUser when none is given.
const DefaultListLimit = 50

// NotificationService is the self-hosted notification store.
//
// Every operation acts for userID, the authenticated caller. Touching
// another user's notification returns pkg.ErrForbidden; a missing one
// pkg.ErrNotFound.
type NotificationService interface {
	Create(ctx context.Context, userID string, req *models.CreateNotificationRequest) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, userID, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo     repository.NotificationRepository
	clock    clock.Clock
	maxLimit int
	log      *zap.Logger
}

// NewNotificationService creates the store. maxLimit caps the page size a
// caller may ask for (<= 0: DefaultListLimit).
func NewNotificationService(repo repository.NotificationRepository, maxLimit int, clk clock.Clock, log *zap.Logger) NotificationService {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if maxLimit <= 0 {
		maxLimit = DefaultListLimit
	}
	return &notificationService{
		repo:     repo,
		clock:    clk,
		maxLimit: maxLimit,
		log:      log.Named("store"),
	}
}

func (s *notificationService) Create(ctx context.Context, userID string, req *models.CreateNotificationRequest) (*models.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	n := &models.Notification{
		ID:       req.ID,
		UserID:   userID,
		Message:  req.Message,
		From:     req.From,
		CreateAt: req.CreateAt,
		Read:     req.Read,
		Link:     req.Link,
		BoardID:  req.BoardID,
		CardID:   req.CardID,
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreateAt <= 0 {
		n.CreateAt = s.clock.Now().UnixMilli()
	}
	if n.Link == "" && n.BoardID != "" {
		n.Link = "/boards/" + n.BoardID
		if n.CardID != "" {
			n.Link += "/" + n.CardID
		}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.log.Debug("notification stored", zap.String("id", n.ID), zap.String("user_id", userID))
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) Get(ctx context.Context, userID, id string) (*models.Notification, error) {
	return s.owned(ctx, userID, id)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *notificationService) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	deleted, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Info("notifications cleared", zap.String("user_id", userID), zap.Int64("count", deleted))
	return deleted, nil
}

// owned loads id and checks it belongs to userID.
func (s *notificationService) owned(ctx context.Context, userID, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("%w: notification belongs to another user", pkg.ErrForbidden)
	}
	return n, nil
}
