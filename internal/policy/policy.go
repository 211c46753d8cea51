// Package policy decides what each role may do. It is pure: no I/O, no
// state, identity is always passed in.
package policy

import (
	"dashboard_api/internal/apperr"
	"dashboard_api/internal/model"
)

// Capability is a named permitted action.
type Capability int

const (
	// ManageUsers covers listing users, changing roles and deleting users.
	ManageUsers Capability = iota
	// ViewLogs covers reading the activity log.
	ViewLogs
	// ManageOwnPosts covers creating posts and editing or deleting one's own.
	ManageOwnPosts
	// ViewPosts covers reading any post, liking and commenting.
	ViewPosts
)

// AllCapabilities lists every capability.
var AllCapabilities = []Capability{ManageUsers, ViewLogs, ManageOwnPosts, ViewPosts}

func (c Capability) String() string {
	switch c {
	case ManageUsers:
		return "manage_users"
	case ViewLogs:
		return "view_logs"
	case ManageOwnPosts:
		return "manage_own_posts"
	case ViewPosts:
		return "view_posts"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

type capSet uint8

func (s capSet) has(c Capability) bool { return s&(1<<uint(c)) != 0 }

func setOf(caps ...Capability) capSet {
	var s capSet
	for _, c := range caps {
		s |= 1 << uint(c)
	}
	return s
}

// grants returns the capability set of a role. Unknown roles get nothing.
func grants(role model.Role) capSet {
	switch role {
	case model.RoleAdmin:
		return setOf(ManageUsers, ViewLogs, ManageOwnPosts, ViewPosts)
	case model.RoleEditor:
		return setOf(ManageOwnPosts, ViewPosts)
	case model.RoleViewer:
		return setOf(ViewPosts)
	default:
		return 0
	}
}

// Authorize maps (role, capability) to Allow or Deny.
func Authorize(role model.Role, c Capability) Decision {
	if grants(role).has(c) {
		return Allow
	}
	return Deny
}

// ErrForbidden is returned when a role lacks a capability.
var ErrForbidden = apperr.Forbidden("FORBIDDEN", "You do not have permission to access this resource")

// ErrNotAuthor is returned when a non-author tries to mutate a post.
var ErrNotAuthor = apperr.Forbidden("NOT_AUTHOR", "Only the author of a post can modify it")

// Check returns ErrForbidden when role lacks c.
func Check(role model.Role, c Capability) error {
	if Authorize(role, c) == Allow {
		return nil
	}
	return ErrForbidden
}

// CanModifyPost reports whether requesterID may edit or delete a post written
// by authorID. Role never bypasses ownership.
func CanModifyPost(requesterID, authorID int64) bool {
	return requesterID != 0 && requesterID == authorID
}

// CheckPostMutation combines the capability and ownership checks for post
// update and delete.
func CheckPostMutation(actor model.Actor, authorID int64) error {
	if err := Check(actor.Role, ManageOwnPosts); err != nil {
		return err
	}
	if !CanModifyPost(actor.ID, authorID) {
		return ErrNotAuthor
	}
	return nil
}
