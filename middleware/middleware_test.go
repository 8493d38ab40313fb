package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/akinalp/boardwatch/handlers"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg/ratelimit"
	"github.com/akinalp/boardwatch/services"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(handlers.UserContextKey).(*models.User)
		if user != nil {
			w.Write([]byte(user.ID))
		}
	})
}

func TestRequire(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, nil)
	valid, _, err := tokens.IssueAccessToken("u1", "ada")
	if err != nil {
		t.Fatal(err)
	}
	other, _, _ := services.NewTokenService("other-secret", time.Hour, nil).IssueAccessToken("u1", "ada")

	handler := NewAuthMiddleware(tokens).Require(echoUser())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + other, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "u1" {
				t.Errorf("user in context = %q, want u1", rec.Body.String())
			}
		})
	}
}

func TestRateLimitPerUser(t *testing.T) {
	clk := clock.NewMock()
	limiter := ratelimit.New(2, time.Minute, 100, clk)
	tokens := services.NewTokenService("secret", time.Hour, clk)
	handler := NewAuthMiddleware(tokens).Require(RateLimit(limiter, nil)(echoUser()))

	send := func(userID string) *httptest.ResponseRecorder {
		token, _, _ := tokens.IssueAccessToken(userID, userID)
		req := httptest.NewRequest("POST", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("u1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	rec := send("u1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "30" && ra != "31" {
		t.Errorf("Retry-After = %q, want about 30", ra)
	}
	if rec := send("u2"); rec.Code != http.StatusOK {
		t.Errorf("other user limited: %d", rec.Code)
	}
}
