package models

import "strings"

// Role is a permission level a user holds on a board.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEditor    Role = "editor"
	RoleCommenter Role = "commenter"
	RoleViewer    Role = "viewer"
)

// RolePriority is the order used when one role has to be picked for a message:
// the strongest role a member holds wins.
var RolePriority = []Role{RoleAdmin, RoleEditor, RoleCommenter, RoleViewer}

// RoleSet is a bitset over the four board roles.
//
// The zero value is the empty set (a membership with no scheme flags).
type RoleSet uint8

const (
	roleBitAdmin RoleSet = 1 << iota
	roleBitEditor
	roleBitCommenter
	roleBitViewer
)

func roleBit(r Role) RoleSet {
	switch r {
	case RoleAdmin:
		return roleBitAdmin
	case RoleEditor:
		return roleBitEditor
	case RoleCommenter:
		return roleBitCommenter
	case RoleViewer:
		return roleBitViewer
	}
	return 0
}

// NewRoleSet builds a set from role labels. Unknown labels are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= roleBit(r)
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	b := roleBit(r)
	return b != 0 && s&b != 0
}

// Roles returns the members of the set in priority order.
func (s RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(RolePriority))
	for _, r := range RolePriority {
		if s.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Highest returns the strongest role in the set, or "" for an empty set.
func (s RoleSet) Highest() Role {
	for _, r := range RolePriority {
		if s.Has(r) {
			return r
		}
	}
	return ""
}

// Added returns the roles present in s but not in prior.
func (s RoleSet) Added(prior RoleSet) RoleSet {
	return s &^ prior
}

// IsSubsetOf reports whether every role in s is also in other.
func (s RoleSet) IsSubsetOf(other RoleSet) bool {
	return s&^other == 0
}

func (s RoleSet) String() string {
	roles := s.Roles()
	labels := make([]string, len(roles))
	for i, r := range roles {
		labels[i] = string(r)
	}
	return "[" + strings.Join(labels, ",") + "]"
}

// BoardMember is a user's role grant on a board, as pushed by the board server.
type BoardMember struct {
	BoardID         string `json:"boardId"`
	UserID          string `json:"userId"`
	Roles           string `json:"roles,omitempty"`
	MinimumRole     string `json:"minimumRole,omitempty"`
	SchemeAdmin     bool   `json:"schemeAdmin"`
	SchemeEditor    bool   `json:"schemeEditor"`
	SchemeCommenter bool   `json:"schemeCommenter"`
	SchemeViewer    bool   `json:"schemeViewer"`
	Synthetic       bool   `json:"synthetic,omitempty"`
}

// RoleSet maps the four scheme flags to a RoleSet.
func (m BoardMember) RoleSet() RoleSet {
	var s RoleSet
	if m.SchemeAdmin {
		s |= roleBitAdmin
	}
	if m.SchemeEditor {
		s |= roleBitEditor
	}
	if m.SchemeCommenter {
		s |= roleBitCommenter
	}
	if m.SchemeViewer {
		s |= roleBitViewer
	}
	return s
}

// Key identifies the membership: one user on one board.
func (m BoardMember) Key() string {
	return m.UserID + "-" + m.BoardID
}
