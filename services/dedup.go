package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/repository"
)

// DefaultCooldownWindow is how long an identical notification stays
// suppressed after it fired.
const DefaultCooldownWindow = 5 * time.Minute

// RoleLossNotifies is the role-removal policy: a membership update that only
// takes roles away (admin → viewer, or all flags cleared) produces no
// notification.
const RoleLossNotifies = false

// MembershipChange classifies a membership update against its prior state.
type MembershipChange int

const (
	MembershipUnchanged MembershipChange = iota
	MembershipNew
	MembershipRoleChanged
)

func (c MembershipChange) String() string {
	switch c {
	case MembershipNew:
		return "new"
	case MembershipRoleChanged:
		return "role_changed"
	default:
		return "unchanged"
	}
}

// ClassifyMembership compares the current role set with the prior one.
// Without a prior entry the membership is new; otherwise it changed only
// when current holds a role prior did not.
func ClassifyMembership(prior models.RoleSet, hadPrior bool, current models.RoleSet) MembershipChange {
	if !hadPrior {
		return MembershipNew
	}
	if current.Added(prior) != 0 {
		return MembershipRoleChanged
	}
	if RoleLossNotifies && !prior.IsSubsetOf(current) {
		return MembershipRoleChanged
	}
	return MembershipUnchanged
}

// ClassifyAssignment reports whether viewer was newly assigned: viewer is
// in current and either nothing was tracked before or viewer was not in
// prior. Other users in the list are not considered.
func ClassifyAssignment(prior []string, hadPrior bool, current []string, viewer string) bool {
	if !slices.Contains(current, viewer) {
		return false
	}
	return !hadPrior || !slices.Contains(prior, viewer)
}

// ─── Cooldown keys ───

// MembershipCooldownKey includes the four flags, so each distinct role
// combination has its own window.
func MembershipCooldownKey(m models.BoardMember) string {
	return fmt.Sprintf("board-member-%s-%s-%s-%s-%s-%s",
		m.UserID, m.BoardID,
		strconv.FormatBool(m.SchemeAdmin),
		strconv.FormatBool(m.SchemeEditor),
		strconv.FormatBool(m.SchemeCommenter),
		strconv.FormatBool(m.SchemeViewer))
}

// AssignmentCooldownKey is "card-assign-{cardId}-{propertyId}-{viewerId}".
func AssignmentCooldownKey(cardID, propertyID, viewerID string) string {
	return "card-assign-" + cardID + "-" + propertyID + "-" + viewerID
}

// MentionCooldownKey is "mention-{blockId}-{viewerId}".
func MentionCooldownKey(blockID, viewerID string) string {
	return "mention-" + blockID + "-" + viewerID
}

// CommentCooldownKey is "card-comment-{blockId}-{viewerId}".
func CommentCooldownKey(blockID, viewerID string) string {
	return "card-comment-" + blockID + "-" + viewerID
}

// Deduper gates notifications per cooldown key.
type Deduper struct {
	store repository.CooldownStore
}

// NewDeduper creates a Deduper over store.
func NewDeduper(store repository.CooldownStore) *Deduper {
	return &Deduper{store: store}
}

// Allow reports whether a notification for key may fire at now and, if so,
// records now as its firing time.
func (d *Deduper) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	return d.store.Acquire(ctx, key, now)
}
