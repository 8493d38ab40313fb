package services

import (
	"slices"
	"sync"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/ws"
)

// InboxService is the viewer's local notification list, newest first.
//
// A notification's read flag only moves from false to true: an update or a
// reconcile carrying read=false for a read entry keeps it read. Every
// mutation is pushed to the viewer's UI sessions.
type InboxService interface {
	Add(n models.Notification)
	Merge(incoming []models.Notification)
	MarkRead(id string) bool
	MarkAllRead() int
	Clear()
	List() []models.Notification
	UnreadCount() int
	Snapshot() models.InboxSnapshot
}

type inboxService struct {
	viewerID string
	capacity int
	hub      ws.EventPublisher

	mu     sync.Mutex
	items  []models.Notification
	unread int
}

// NewInboxService creates the inbox of viewerID. capacity > 0 drops the
// oldest entries beyond it.
func NewInboxService(viewerID string, capacity int, hub ws.EventPublisher) InboxService {
	return &inboxService{viewerID: viewerID, capacity: capacity, hub: hub}
}

// Add inserts n at the top, or updates the entry with the same id in place.
func (s *inboxService) Add(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(n.ID); i >= 0 {
		n.Read = n.Read || s.items[i].Read
		if n.Read && !s.items[i].Read {
			s.unread--
		}
		s.items[i] = n
	} else {
		s.items = slices.Insert(s.items, 0, n)
		if !n.Read {
			s.unread++
		}
		s.trim()
	}

	s.publish(ws.OpNotificationCreate, ws.NotificationCreateData{Notification: n, UnreadCount: s.unread})
}

// Merge upserts incoming (e.g. a reload from the remote store), orders the
// list by creation time, newest first, and recounts unread entries.
func (s *inboxService) Merge(incoming []models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range incoming {
		if i := s.indexOf(n.ID); i >= 0 {
			n.Read = n.Read || s.items[i].Read
			s.items[i] = n
		} else {
			s.items = append(s.items, n)
		}
	}
	slices.SortStableFunc(s.items, func(a, b models.Notification) int {
		switch {
		case a.CreateAt > b.CreateAt:
			return -1
		case a.CreateAt < b.CreateAt:
			return 1
		}
		return 0
	})
	s.trim()
	s.recount()

	s.publish(ws.OpNotificationsSync, s.snapshotLocked())
}

// MarkRead marks one entry read; false when the id is unknown.
func (s *inboxService) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if !s.items[i].Read {
		s.items[i].Read = true
		s.unread--
	}

	s.publish(ws.OpNotificationRead, ws.NotificationReadData{ID: id, UnreadCount: s.unread})
	return true
}

// MarkAllRead marks every entry read and returns how many changed.
func (s *inboxService) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed++
		}
	}
	s.unread = 0

	s.publish(ws.OpNotificationsReadAll, ws.UnreadCountData{UnreadCount: 0})
	return changed
}

func (s *inboxService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.unread = 0

	s.publish(ws.OpNotificationsClear, ws.UnreadCountData{UnreadCount: 0})
}

// List returns a copy of the entries, newest first.
func (s *inboxService) List() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *inboxService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *inboxService) Snapshot() models.InboxSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ─── Helpers (caller holds mu) ───

func (s *inboxService) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(n models.Notification) bool { return n.ID == id })
}

func (s *inboxService) trim() {
	if s.capacity <= 0 || len(s.items) <= s.capacity {
		return
	}
	for _, n := range s.items[s.capacity:] {
		if !n.Read {
			s.unread--
		}
	}
	s.items = slices.Clip(s.items[:s.capacity])
}

func (s *inboxService) recount() {
	s.unread = 0
	for _, n := range s.items {
		if !n.Read {
			s.unread++
		}
	}
}

func (s *inboxService) listLocked() []models.Notification {
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *inboxService) snapshotLocked() models.InboxSnapshot {
	return models.InboxSnapshot{Notifications: s.listLocked(), UnreadCount: s.unread}
}

// publish runs under mu so sessions see mutations in order.
func (s *inboxService) publish(op string, data any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(s.viewerID, ws.Event{Op: op, Data: data})
}
