package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg/i18n"
)

// RemoteStore is the durable notification store the emitter writes to.
type RemoteStore interface {
	CreateNotification(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error)
}

// Forwarder copies emitted notifications to an outside channel.
type Forwarder interface {
	Forward(ctx context.Context, n models.Notification) error
}

// Emitter renders notification texts and publishes notifications.
//
// Publishing appends to the local inbox synchronously, then writes to the
// remote store on a tracked goroutine. A failed remote write is logged; it
// never removes the local entry.
type Emitter struct {
	inbox   InboxService
	remote  RemoteStore
	forward Forwarder
	loc     *i18n.Localizer
	timeout time.Duration
	log     *zap.Logger

	wg sync.WaitGroup
}

// NewEmitter creates an emitter. remote may be nil (local inbox only).
// timeout bounds each remote write.
func NewEmitter(inbox InboxService, remote RemoteStore, loc *i18n.Localizer, timeout time.Duration, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Emitter{
		inbox:   inbox,
		remote:  remote,
		loc:     loc,
		timeout: timeout,
		log:     log.Named("emitter"),
	}
}

// SetForwarder adds an outside channel every emitted notification is
// copied to. Call before the first Emit.
func (e *Emitter) SetForwarder(f Forwarder) {
	e.forward = f
}

// Emit publishes n.
func (e *Emitter) Emit(n models.Notification) {
	e.inbox.Add(n)
	e.log.Info("notification emitted", zap.String("id", n.ID), zap.String("board_id", n.BoardID))

	if e.forward != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
			defer cancel()

			if err := e.forward.Forward(ctx, n); err != nil {
				e.log.Warn("notification forward failed", zap.String("id", n.ID), zap.Error(err))
			}
		}()
	}

	if e.remote == nil {
		return
	}

	req := models.CreateNotificationRequest{
		ID:       n.ID,
		Message:  n.Message,
		From:     n.From,
		CreateAt: n.CreateAt,
		Link:     n.Link,
		BoardID:  n.BoardID,
		CardID:   n.CardID,
		Read:     n.Read,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if _, err := e.remote.CreateNotification(ctx, req); err != nil {
			e.log.Warn("remote notification write failed", zap.String("id", req.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until every remote write and forward started so far has finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

// ─── Message rendering ───

// SystemSender is the localized sender label of system notifications.
func (e *Emitter) SystemSender() string {
	return e.loc.T("system.sender")
}

// EmailSubject is the localized subject of forwarded notification mails.
func (e *Emitter) EmailSubject() string {
	return e.loc.T("email.subject")
}

// MembershipMessage renders the text for a membership change. New
// memberships get the admin variant when admin is held; role changes name
// the strongest role of current.
func (e *Emitter) MembershipMessage(change MembershipChange, boardTitle string, current models.RoleSet) string {
	params := map[string]string{"board": boardTitle}

	if change == MembershipNew {
		if current.Has(models.RoleAdmin) {
			return e.loc.TWithParams("membership.addedAsAdmin", params)
		}
		return e.loc.TWithParams("membership.added", params)
	}

	role := current.Highest()
	if role == "" {
		role = models.RoleViewer
	}
	return e.loc.TWithParams("membership.roleChanged."+string(role), params)
}

// AssignmentMessage renders the text for a new card assignment.
func (e *Emitter) AssignmentMessage(propertyName, cardTitle string) string {
	return e.loc.TWithParams("assignment.assigned", map[string]string{
		"property": propertyName,
		"card":     cardTitle,
	})
}

// MentionMessage renders the text for a mention.
func (e *Emitter) MentionMessage(actor, cardTitle, boardTitle string) string {
	return e.loc.TWithParams("mention.mentioned", map[string]string{
		"actor": actor,
		"card":  cardTitle,
		"board": boardTitle,
	})
}

// CommentMessage renders the text for a new comment on an assigned card.
func (e *Emitter) CommentMessage(actor, cardTitle string) string {
	return e.loc.TWithParams("comment.commented", map[string]string{
		"actor": actor,
		"card":  cardTitle,
	})
}

// ShortTitle shortens titles longer than 20 characters to their first 17
// followed by "...".
func ShortTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 20 {
		return title
	}
	return string(runes[:17]) + "..."
}
