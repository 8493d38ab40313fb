package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/akinalp/boardwatch/database"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/repository"
)

func newTestStore(t *testing.T, maxLimit int) (NotificationService, *clock.Mock) {
	t.Helper()
	db, err := database.New(context.Background(), database.MemoryPath, database.Migrations(), nil)
	if err != nil {
		t.Fatalf("database.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewMock()
	clk.Set(testStart)
	return NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), maxLimit, clk, nil), clk
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	tests := []struct {
		name     string
		req      models.CreateNotificationRequest
		wantLink string
		wantErr  error
	}{
		{
			name:     "board and card link",
			req:      models.CreateNotificationRequest{Message: "m", From: "System", BoardID: "b1", CardID: "c1"},
			wantLink: "/boards/b1/c1",
		},
		{
			name:     "board link",
			req:      models.CreateNotificationRequest{Message: "m", From: "System", BoardID: "b1"},
			wantLink: "/boards/b1",
		},
		{
			name:     "explicit link kept",
			req:      models.CreateNotificationRequest{Message: "m", From: "System", BoardID: "b1", Link: "/board/b1"},
			wantLink: "/board/b1",
		},
		{
			name:    "message required",
			req:     models.CreateNotificationRequest{From: "System"},
			wantErr: pkg.ErrBadRequest,
		},
		{
			name:    "from required",
			req:     models.CreateNotificationRequest{Message: "m"},
			wantErr: pkg.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.Create(ctx, "u1", &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if n.ID == "" || n.UserID != "u1" || n.CreateAt != testStart.UnixMilli() {
				t.Errorf("notification = %+v", n)
			}
			if n.Link != tt.wantLink {
				t.Errorf("Link = %q, want %q", n.Link, tt.wantLink)
			}
		})
	}
}

func TestStoreCreateKeepsClientID(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)
	req := &models.CreateNotificationRequest{ID: "mention-x-1", Message: "m", From: "grace"}

	n, err := store.Create(ctx, "u1", req)
	if err != nil || n.ID != "mention-x-1" {
		t.Fatalf("Create() = %+v, %v", n, err)
	}
	if _, err := store.Create(ctx, "u1", req); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("duplicate Create() error = %v, want ErrAlreadyExists", err)
	}
}

func TestStoreCreateAt(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)
	emitted := testStart.Add(-time.Minute).UnixMilli()

	tests := []struct {
		name     string
		createAt int64
		want     int64
	}{
		{"client value kept", emitted, emitted},
		{"zero defaults to now", 0, testStart.UnixMilli()},
		{"negative defaults to now", -5, testStart.UnixMilli()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.Create(ctx, "u1", &models.CreateNotificationRequest{Message: "m", From: "System", CreateAt: tt.createAt})
			if err != nil {
				t.Fatal(err)
			}
			if n.CreateAt != tt.want {
				t.Errorf("CreateAt = %d, want %d", n.CreateAt, tt.want)
			}
			got, err := store.Get(ctx, "u1", n.ID)
			if err != nil || got.CreateAt != tt.want {
				t.Errorf("stored CreateAt = %+v, %v", got, err)
			}
		})
	}
}

func TestStoreListLimits(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		if _, err := store.Create(ctx, "u1", &models.CreateNotificationRequest{Message: "m", From: "System"}); err != nil {
			t.Fatal(err)
		}
		clk.Add(time.Second)
	}

	tests := []struct {
		limit, offset, want int
	}{
		{limit: 0, offset: 0, want: 3},
		{limit: 2, offset: 0, want: 2},
		{limit: 10, offset: 0, want: 3},
		{limit: 3, offset: 4, want: 1},
		{limit: 3, offset: -1, want: 3},
	}
	for _, tt := range tests {
		list, err := store.ListForUser(ctx, "u1", tt.limit, tt.offset)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != tt.want {
			t.Errorf("ListForUser(limit=%d, offset=%d) returned %d, want %d", tt.limit, tt.offset, len(list), tt.want)
		}
	}

	list, _ := store.ListForUser(ctx, "u1", 3, 0)
	for i := 1; i < len(list); i++ {
		if list[i-1].CreateAt < list[i].CreateAt {
			t.Errorf("list not newest first: %d before %d", list[i-1].CreateAt, list[i].CreateAt)
		}
	}
}

func TestStoreOwnership(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	n, err := store.Create(ctx, "u1", &models.CreateNotificationRequest{Message: "m", From: "System"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "u2", n.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("Get by other user = %v, want ErrForbidden", err)
	}
	if err := store.MarkRead(ctx, "u2", n.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("MarkRead by other user = %v, want ErrForbidden", err)
	}
	if err := store.Delete(ctx, "u2", n.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("Delete by other user = %v, want ErrForbidden", err)
	}
	if err := store.MarkRead(ctx, "u1", "missing"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("MarkRead(missing) = %v, want ErrNotFound", err)
	}

	if err := store.MarkRead(ctx, "u1", n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if count, _ := store.UnreadCount(ctx, "u1"); count != 0 {
		t.Errorf("UnreadCount() = %d, want 0", count)
	}
	if err := store.Delete(ctx, "u1", n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "u1", n.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestStoreBulkOperations(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	for _, user := range []string{"u1", "u1", "u2"} {
		if _, err := store.Create(ctx, user, &models.CreateNotificationRequest{Message: "m", From: "System"}); err != nil {
			t.Fatal(err)
		}
	}

	marked, err := store.MarkAllRead(ctx, "u1")
	if err != nil || marked != 2 {
		t.Fatalf("MarkAllRead() = %d, %v; want 2", marked, err)
	}
	if count, _ := store.UnreadCount(ctx, "u2"); count != 1 {
		t.Errorf("other user's unread count = %d, want 1", count)
	}

	deleted, err := store.DeleteAllForUser(ctx, "u1")
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteAllForUser() = %d, %v; want 2", deleted, err)
	}
	if list, _ := store.ListForUser(ctx, "u2", 0, 0); len(list) != 1 {
		t.Errorf("other user's list has %d entries, want 1", len(list))
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)
	local := NewLocalStore(store, "me")

	var remote RemoteStore = local
	var api NotificationAPI = local

	if _, err := remote.CreateNotification(ctx, models.CreateNotificationRequest{ID: "n1", Message: "m", From: "System", BoardID: "b1"}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	list, err := api.ListNotifications(ctx, 10)
	if err != nil || len(list) != 1 || list[0].UserID != "me" {
		t.Fatalf("ListNotifications() = %+v, %v", list, err)
	}
	if err := api.MarkNotificationRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := api.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if count, _ := store.UnreadCount(ctx, "me"); count != 0 {
		t.Errorf("UnreadCount() = %d, want 0", count)
	}
}
