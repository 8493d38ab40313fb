package models

import "fmt"

// Notification is a user-facing alert.
//
// CreateAt is milliseconds since the Unix epoch. The JSON names follow the
// board server's notification API so records round-trip unchanged between
// the store and the watcher.
type Notification struct {
	ID       string `json:"id" db:"id"`
	UserID   string `json:"userID,omitempty" db:"user_id"`
	Message  string `json:"message" db:"message"`
	From     string `json:"from" db:"from_user"`
	CreateAt int64  `json:"createAt" db:"create_at"`
	Read     bool   `json:"read" db:"is_read"`
	Link     string `json:"link,omitempty" db:"link"`
	BoardID  string `json:"boardID,omitempty" db:"board_id"`
	CardID   string `json:"cardID,omitempty" db:"card_id"`
}

// CreateNotificationRequest is the POST /notifications body.
// The recipient is always the authenticated user, never a body field. ID is
// optional: the watcher sends its own id so the local inbox and the store
// agree on it; the store generates one otherwise. CreateAt <= 0 means now.
type CreateNotificationRequest struct {
	ID       string `json:"id,omitempty"`
	Message  string `json:"message"`
	From     string `json:"from"`
	CreateAt int64  `json:"createAt,omitempty"`
	Link     string `json:"link,omitempty"`
	BoardID  string `json:"boardID,omitempty"`
	CardID   string `json:"cardID,omitempty"`
	Read     bool   `json:"read"`
}

// Validate checks the required fields.
func (r *CreateNotificationRequest) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message is required")
	}
	if r.From == "" {
		return fmt.Errorf("from is required")
	}
	return nil
}

// UnreadCount is the GET /notifications/unread_count body.
type UnreadCount struct {
	Count int `json:"count"`
}

// InboxSnapshot is the local inbox state as served to UI sessions.
type InboxSnapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
