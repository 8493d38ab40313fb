// Package ws carries the two websocket sides of the watcher.
//
// Hub/Client/Handler push inbox changes to local UI sessions:
//
//	inbox mutation → Hub.BroadcastToUser → Client.send → WritePump → browser
//
// Feed is the upstream side: it subscribes to the board server's team
// stream and hands batched membership and block updates to listeners.
package ws

import "github.com/akinalp/boardwatch/models"

// Event is the envelope of every message on a local UI session.
//
// Seq increases by one per outbound event so a session can spot gaps and
// reload the inbox.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → server
const (
	OpHeartbeat = "heartbeat"
)

// Server → client
const (
	OpReady        = "ready" // first event: the current inbox snapshot
	OpHeartbeatAck = "heartbeat_ack"

	OpNotificationCreate   = "notification_create"
	OpNotificationsSync    = "notifications_sync"
	OpNotificationRead     = "notification_read"
	OpNotificationsReadAll = "notifications_read_all"
	OpNotificationsClear   = "notifications_clear"
)

// NotificationReadData is the payload of notification_read.
type NotificationReadData struct {
	ID          string `json:"id"`
	UnreadCount int    `json:"unreadCount"`
}

// UnreadCountData is the payload of notifications_read_all and
// notifications_clear.
type UnreadCountData struct {
	UnreadCount int `json:"unreadCount"`
}

// NotificationCreateData is the payload of notification_create.
type NotificationCreateData struct {
	Notification models.Notification `json:"notification"`
	UnreadCount  int                 `json:"unreadCount"`
}
