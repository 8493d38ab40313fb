package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/boardwatch/models"
)

type staticTokens map[string]string

func (s staticTokens) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	userID, ok := s[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &models.TokenClaims{UserID: userID}, nil
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	hub.OnConnect(func(c *Client) {
		c.Send(Event{Op: OpReady, Data: map[string]int{"unreadCount": 0}})
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	handler := NewHandler(hub, staticTokens{"good": "u1"}, nil)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialSession(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestHubDeliversToUserSessions(t *testing.T) {
	hub, srv := startHub(t)

	conn, err := dialSession(t, srv, "good")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if ev := readEvent(t, conn); ev.Op != OpReady {
		t.Fatalf("first op = %q, want %q", ev.Op, OpReady)
	}

	hub.BroadcastToUser("someone-else", Event{Op: OpNotificationsClear})
	hub.BroadcastToUser("u1", Event{Op: OpNotificationRead, Data: NotificationReadData{ID: "n1", UnreadCount: 2}})

	ev := readEvent(t, conn)
	if ev.Op != OpNotificationRead {
		t.Fatalf("op = %q, want %q", ev.Op, OpNotificationRead)
	}
	if ev.Seq == 0 {
		t.Error("seq should be set")
	}

	if err := conn.WriteJSON(Event{Op: OpHeartbeat}); err != nil {
		t.Fatal(err)
	}
	if ev := readEvent(t, conn); ev.Op != OpHeartbeatAck {
		t.Errorf("op = %q, want %q", ev.Op, OpHeartbeatAck)
	}
}

func TestHubRejectsBadToken(t *testing.T) {
	_, srv := startHub(t)

	if _, err := dialSession(t, srv, "bad"); err == nil {
		t.Fatal("dial with a bad token should fail")
	}
	if _, err := dialSession(t, srv, ""); err == nil {
		t.Fatal("dial without a token should fail")
	}
}
