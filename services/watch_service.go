package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/pkg/mention"
)

// BoardAPI is what the watcher needs from the board server. Lookups return
// nil with a nil error when the entity does not exist.
type BoardAPI interface {
	GetBoard(ctx context.Context, boardID string) (*models.Board, error)
	GetBlock(ctx context.Context, boardID, blockID string) (*models.Block, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	MyBoardMemberships(ctx context.Context) ([]models.BoardMember, error)
}

// NotificationAPI is the remote store's read side.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// WatchService turns pushed board updates into notifications for one
// viewer.
//
// Batches are expected one at a time (the feed dispatches sequentially);
// the trackers and the cooldown gate are nonetheless safe for concurrent
// use. A failure while handling one entity is logged and the batch goes on.
type WatchService interface {
	LoadMemberships(ctx context.Context) (int, error)
	LoadNotifications(ctx context.Context) (int, error)
	HandleBoardMembers(ctx context.Context, members []models.BoardMember)
	HandleBlocks(ctx context.Context, blocks []models.Block)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Viewer() models.User
}

// WatchDeps bundles the collaborators of a WatchService.
type WatchDeps struct {
	Viewer        models.User
	Boards        BoardAPI
	Notifications NotificationAPI // nil: no remote store
	Memberships   *MembershipTracker
	Assignments   *AssignmentTracker
	Deduper       *Deduper
	Emitter       *Emitter
	Inbox         InboxService
	Clock         clock.Clock
	Log           *zap.Logger
	ReloadLimit   int
}

type watchService struct {
	WatchDeps
	log *zap.Logger
}

// NewWatchService creates the watcher.
func NewWatchService(deps WatchDeps) WatchService {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.ReloadLimit <= 0 {
		deps.ReloadLimit = 100
	}
	return &watchService{
		WatchDeps: deps,
		log:       deps.Log.Named("watch").With(zap.String("viewer_id", deps.Viewer.ID)),
	}
}

func (s *watchService) Viewer() models.User {
	return s.WatchDeps.Viewer
}

// ─── Session start ───

// LoadMemberships seeds the membership tracker with the viewer's current
// memberships, so only changes after this point notify.
func (s *watchService) LoadMemberships(ctx context.Context) (int, error) {
	members, err := s.Boards.MyBoardMemberships(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load memberships: %w", err)
	}

	now := s.Clock.Now()
	for _, m := range members {
		s.Memberships.Seed(MembershipKey(m.UserID, m.BoardID), m.RoleSet(), now)
	}
	s.log.Info("memberships loaded", zap.Int("count", len(members)))
	return len(members), nil
}

// LoadNotifications merges the newest remote notifications into the inbox.
func (s *watchService) LoadNotifications(ctx context.Context) (int, error) {
	if s.Notifications == nil {
		return 0, nil
	}

	list, err := s.Notifications.ListNotifications(ctx, s.ReloadLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to load notifications: %w", err)
	}
	s.Inbox.Merge(list)
	s.log.Info("notifications reconciled", zap.Int("count", len(list)))
	return len(list), nil
}

// ─── Membership updates ───

func (s *watchService) HandleBoardMembers(ctx context.Context, members []models.BoardMember) {
	for _, m := range members {
		if m.UserID != s.WatchDeps.Viewer.ID {
			continue
		}
		if err := s.handleMember(ctx, m); err != nil {
			s.log.Warn("membership update failed",
				zap.String("board_id", m.BoardID), zap.Error(err))
		}
	}
}

func (s *watchService) handleMember(ctx context.Context, m models.BoardMember) error {
	now := s.Clock.Now()
	current := m.RoleSet()

	prior, found := s.Memberships.Observe(MembershipKey(m.UserID, m.BoardID), current, now)
	change := ClassifyMembership(prior.Value, found, current)
	if change == MembershipUnchanged {
		return nil
	}

	board, err := s.Boards.GetBoard(ctx, m.BoardID)
	if err != nil {
		return fmt.Errorf("board lookup: %w", err)
	}
	if board == nil {
		return nil
	}

	allowed, err := s.Deduper.Allow(ctx, MembershipCooldownKey(m), now)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("membership notification suppressed", zap.String("board_id", m.BoardID))
		return nil
	}

	nowMs := now.UnixMilli()
	s.Emitter.Emit(models.Notification{
		ID:       fmt.Sprintf("board-member-%s-%s-%d", m.UserID, m.BoardID, nowMs),
		UserID:   s.WatchDeps.Viewer.ID,
		Message:  s.Emitter.MembershipMessage(change, board.Title, current),
		From:     s.Emitter.SystemSender(),
		CreateAt: nowMs,
		Link:     "/board/" + m.BoardID,
		BoardID:  m.BoardID,
	})
	return nil
}

// ─── Block updates ───

func (s *watchService) HandleBlocks(ctx context.Context, blocks []models.Block) {
	for _, b := range blocks {
		if b.DeleteAt != 0 {
			continue
		}

		if b.Type.CarriesMentions() && b.Title != "" {
			// A mention already tells the viewer about the comment.
			if s.mentionsViewer(b) {
				if err := s.handleMention(ctx, b); err != nil {
					s.log.Warn("mention handling failed", zap.String("block_id", b.ID), zap.Error(err))
				}
			} else if b.Type == models.BlockTypeComment {
				if err := s.handleComment(ctx, b); err != nil {
					s.log.Warn("comment handling failed", zap.String("block_id", b.ID), zap.Error(err))
				}
			}
		}

		if b.Type == models.BlockTypeCard && len(b.Fields.Properties) > 0 {
			if err := s.handleAssignments(ctx, b); err != nil {
				s.log.Warn("assignment handling failed", zap.String("card_id", b.ID), zap.Error(err))
			}
		}
	}
}

func (s *watchService) mentionsViewer(b models.Block) bool {
	handle := strings.ToLower(s.WatchDeps.Viewer.Username)
	return handle != "" && slices.Contains(mention.Extract(b.Title), handle)
}

func (s *watchService) handleMention(ctx context.Context, b models.Block) error {
	now := s.Clock.Now()

	board, err := s.Boards.GetBoard(ctx, b.BoardID)
	if err != nil {
		return fmt.Errorf("board lookup: %w", err)
	}
	if board == nil {
		return nil
	}

	var card *models.Block
	if b.ParentID != "" {
		if card, err = s.Boards.GetBlock(ctx, b.BoardID, b.ParentID); err != nil {
			return fmt.Errorf("card lookup: %w", err)
		}
	}

	allowed, err := s.Deduper.Allow(ctx, MentionCooldownKey(b.ID, s.WatchDeps.Viewer.ID), now)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("mention notification suppressed", zap.String("block_id", b.ID))
		return nil
	}

	cardTitle := b.Title
	cardID := ""
	switch {
	case card != nil:
		cardTitle = card.Title
		cardID = card.ID
	case b.Type != models.BlockTypeComment:
		cardID = b.ID
	}

	actor := s.resolveActor(ctx, b.CreatedBy)
	nowMs := now.UnixMilli()
	s.Emitter.Emit(models.Notification{
		ID:       fmt.Sprintf("mention-%s-%d", b.ID, nowMs),
		UserID:   s.WatchDeps.Viewer.ID,
		Message:  s.Emitter.MentionMessage(actor, ShortTitle(cardTitle), board.Title),
		From:     actor,
		CreateAt: nowMs,
		Link:     "/board/" + b.BoardID + "/" + b.ID,
		BoardID:  b.BoardID,
		CardID:   cardID,
	})
	return nil
}

// handleComment notifies the viewer of a new comment on a card they are
// assigned to. Edits (updateAt past createAt) and the viewer's own comments
// are skipped.
func (s *watchService) handleComment(ctx context.Context, b models.Block) error {
	viewerID := s.WatchDeps.Viewer.ID
	if b.ParentID == "" || b.CreatedBy == viewerID || b.UpdateAt > b.CreateAt {
		return nil
	}

	now := s.Clock.Now()

	board, err := s.Boards.GetBoard(ctx, b.BoardID)
	if err != nil {
		return fmt.Errorf("board lookup: %w", err)
	}
	if board == nil {
		return nil
	}

	card, err := s.Boards.GetBlock(ctx, b.BoardID, b.ParentID)
	if err != nil {
		return fmt.Errorf("card lookup: %w", err)
	}
	if card == nil || card.Type != models.BlockTypeCard || !card.IsAssigned(board, viewerID) {
		return nil
	}

	allowed, err := s.Deduper.Allow(ctx, CommentCooldownKey(b.ID, viewerID), now)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("comment notification suppressed", zap.String("block_id", b.ID))
		return nil
	}

	actor := s.resolveActor(ctx, b.CreatedBy)
	nowMs := now.UnixMilli()
	s.Emitter.Emit(models.Notification{
		ID:       fmt.Sprintf("card-comment-%s-%d", b.ID, nowMs),
		UserID:   viewerID,
		Message:  s.Emitter.CommentMessage(actor, card.Title),
		From:     actor,
		CreateAt: nowMs,
		Link:     "/board/" + b.BoardID + "/" + card.ID,
		BoardID:  b.BoardID,
		CardID:   card.ID,
	})
	return nil
}

// resolveActor returns the username of userID, or the system label when it
// cannot be resolved.
func (s *watchService) resolveActor(ctx context.Context, userID string) string {
	if userID == "" {
		return s.Emitter.SystemSender()
	}
	user, err := s.Boards.GetUser(ctx, userID)
	if err != nil {
		s.log.Debug("actor lookup failed", zap.String("user_id", userID), zap.Error(err))
		return s.Emitter.SystemSender()
	}
	if user == nil || user.Username == "" {
		return s.Emitter.SystemSender()
	}
	return user.Username
}

func (s *watchService) handleAssignments(ctx context.Context, card models.Block) error {
	board, err := s.Boards.GetBoard(ctx, card.BoardID)
	if err != nil {
		return fmt.Errorf("board lookup: %w", err)
	}
	if board == nil {
		return nil
	}

	viewerID := s.WatchDeps.Viewer.ID
	for _, tpl := range board.AssignableProperties() {
		value, ok := card.Fields.Properties[tpl.ID]
		if !ok || !value.IsSet() {
			continue
		}

		now := s.Clock.Now()
		assignees := value.UserIDs()
		prior, found := s.Assignments.Observe(AssignmentKey(card.ID, tpl.ID), assignees, now)
		if !ClassifyAssignment(prior.Value, found, assignees, viewerID) {
			continue
		}

		allowed, err := s.Deduper.Allow(ctx, AssignmentCooldownKey(card.ID, tpl.ID, viewerID), now)
		if err != nil {
			return err
		}
		if !allowed {
			s.log.Debug("assignment notification suppressed",
				zap.String("card_id", card.ID), zap.String("property_id", tpl.ID))
			continue
		}

		nowMs := now.UnixMilli()
		s.Emitter.Emit(models.Notification{
			ID:       fmt.Sprintf("card-assign-%s-%s-%d", card.ID, tpl.ID, nowMs),
			UserID:   viewerID,
			Message:  s.Emitter.AssignmentMessage(tpl.Name, card.Title),
			From:     s.Emitter.SystemSender(),
			CreateAt: nowMs,
			Link:     "/board/" + card.BoardID + "/" + card.ID,
			BoardID:  card.BoardID,
			CardID:   card.ID,
		})
	}
	return nil
}

// ─── Read state ───

// MarkRead marks id read locally, then on the remote store (best-effort).
func (s *watchService) MarkRead(ctx context.Context, id string) error {
	if !s.Inbox.MarkRead(id) {
		return fmt.Errorf("%w: notification %s", pkg.ErrNotFound, id)
	}
	if s.Notifications != nil {
		if err := s.Notifications.MarkNotificationRead(ctx, id); err != nil {
			s.log.Warn("remote mark read failed", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// MarkAllRead marks everything read locally, then on the remote store
// (best-effort).
func (s *watchService) MarkAllRead(ctx context.Context) error {
	s.Inbox.MarkAllRead()
	if s.Notifications != nil {
		if err := s.Notifications.MarkAllNotificationsRead(ctx); err != nil {
			s.log.Warn("remote mark all read failed", zap.Error(err))
		}
	}
	return nil
}
