package services

import (
	"context"
	"sync"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/ws"
)

// recordingPublisher collects pushed events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
	users  []string
}

func (p *recordingPublisher) BroadcastToUser(userID string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	p.events = append(p.events, event)
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Op
	}
	return out
}

// fakeBoardAPI serves boards, blocks and users from maps.
type fakeBoardAPI struct {
	mu          sync.Mutex
	boards      map[string]*models.Board
	blocks      map[string]*models.Block
	users       map[string]*models.User
	memberships []models.BoardMember
	boardCalls  int
	boardErr    error

	notifications []models.Notification
	markedRead    []string
	markedAll     int
}

func newFakeBoardAPI() *fakeBoardAPI {
	return &fakeBoardAPI{
		boards: make(map[string]*models.Board),
		blocks: make(map[string]*models.Block),
		users:  make(map[string]*models.User),
	}
}

func (f *fakeBoardAPI) GetBoard(_ context.Context, boardID string) (*models.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boardCalls++
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	return f.boards[boardID], nil
}

func (f *fakeBoardAPI) GetBlock(_ context.Context, _, blockID string) (*models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocks[blockID], nil
}

func (f *fakeBoardAPI) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeBoardAPI) MyBoardMemberships(context.Context) ([]models.BoardMember, error) {
	return f.memberships, nil
}

func (f *fakeBoardAPI) ListNotifications(_ context.Context, limit int) ([]models.Notification, error) {
	if len(f.notifications) > limit {
		return f.notifications[:limit], nil
	}
	return f.notifications, nil
}

func (f *fakeBoardAPI) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeBoardAPI) MarkAllNotificationsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedAll++
	return nil
}

// fakeRemoteStore records remote writes.
type fakeRemoteStore struct {
	mu      sync.Mutex
	created []models.CreateNotificationRequest
	err     error
}

func (f *fakeRemoteStore) CreateNotification(_ context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &models.Notification{ID: req.ID, Message: req.Message, From: req.From}, nil
}

func (f *fakeRemoteStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}
