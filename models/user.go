// Package models defines the domain types shared by every layer: board
// memberships, blocks, boards, users and notifications.
//
// JSON tags follow the board server's wire format; `db` tags are used by the
// SQLite notification store.
package models

// User is a board server account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// DisplayName returns the nickname when set, else the username.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
