package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akinalp/boardwatch/database"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/repository"
	"github.com/akinalp/boardwatch/services"
)

// asUser puts the user named by the X-Test-User header into the context.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, &models.User{ID: id}))
		}
		next.ServeHTTP(w, r)
	})
}

func newStoreServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.New(context.Background(), database.MemoryPath, database.Migrations(), nil)
	if err != nil {
		t.Fatalf("database.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := services.NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), 0, nil, nil)
	h := NewNotificationHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/notifications", h.List)
	mux.HandleFunc("POST /api/v2/notifications", h.Create)
	mux.HandleFunc("DELETE /api/v2/notifications", h.DeleteAll)
	mux.HandleFunc("GET /api/v2/notifications/unread_count", h.UnreadCount)
	mux.HandleFunc("PUT /api/v2/notifications/mark_all_as_read", h.MarkAllRead)
	mux.HandleFunc("GET /api/v2/notifications/{id}", h.Get)
	mux.HandleFunc("PUT /api/v2/notifications/{id}/read", h.MarkRead)
	mux.HandleFunc("DELETE /api/v2/notifications/{id}", h.Delete)
	return asUser(mux)
}

func call(t *testing.T, srv http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestNotificationRoutes(t *testing.T) {
	srv := newStoreServer(t)

	rec := call(t, srv, "POST", "/api/v2/notifications", "u1",
		`{"id":"n1","message":"You were added to Roadmap","from":"System","boardID":"b1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body)
	}
	var created models.Notification
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Link != "/boards/b1" || created.UserID != "u1" {
		t.Errorf("created = %+v", created)
	}

	tests := []struct {
		name, method, path, user, body string
		want                           int
	}{
		{"no user", "GET", "/api/v2/notifications", "", "", http.StatusUnauthorized},
		{"bad body", "POST", "/api/v2/notifications", "u1", "{", http.StatusBadRequest},
		{"missing message", "POST", "/api/v2/notifications", "u1", `{"from":"x"}`, http.StatusBadRequest},
		{"duplicate id", "POST", "/api/v2/notifications", "u1", `{"id":"n1","message":"m","from":"x"}`, http.StatusConflict},
		{"bad limit", "GET", "/api/v2/notifications?limit=many", "u1", "", http.StatusBadRequest},
		{"other user get", "GET", "/api/v2/notifications/n1", "u2", "", http.StatusForbidden},
		{"other user read", "PUT", "/api/v2/notifications/n1/read", "u2", "", http.StatusForbidden},
		{"missing", "GET", "/api/v2/notifications/nope", "u1", "", http.StatusNotFound},
		{"get", "GET", "/api/v2/notifications/n1", "u1", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := call(t, srv, tt.method, tt.path, tt.user, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestNotificationReadFlow(t *testing.T) {
	srv := newStoreServer(t)
	for _, id := range []string{"a", "b"} {
		call(t, srv, "POST", "/api/v2/notifications", "u1", `{"id":"`+id+`","message":"m","from":"System"}`)
	}

	unread := func() int {
		rec := call(t, srv, "GET", "/api/v2/notifications/unread_count", "u1", "")
		var body models.UnreadCount
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		return body.Count
	}

	if got := unread(); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}
	if rec := call(t, srv, "PUT", "/api/v2/notifications/a/read", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark read: %d", rec.Code)
	}
	if got := unread(); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	if rec := call(t, srv, "PUT", "/api/v2/notifications/mark_all_as_read", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark all: %d", rec.Code)
	}
	if got := unread(); got != 0 {
		t.Errorf("unread = %d, want 0", got)
	}

	rec := call(t, srv, "GET", "/api/v2/notifications?limit=1", "u1", "")
	var list []models.Notification
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if rec := call(t, srv, "DELETE", "/api/v2/notifications/a", "u1", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := call(t, srv, "DELETE", "/api/v2/notifications", "u1", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":1`) {
		t.Fatalf("delete all: %d %s", rec.Code, rec.Body)
	}

	rec = call(t, srv, "GET", "/api/v2/notifications", "u1", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %s, want []", rec.Body)
	}
}
