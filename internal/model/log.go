package model

import "time"

// Common activity labels.
const (
	ActionRegister       = "Register"
	ActionUpdateProfile  = "Update Profile"
	ActionCreatePost     = "Create Post"
	ActionUpdatePost     = "Update Post"
	ActionDeletePost     = "Delete Post"
	ActionLikePost       = "Like Post"
	ActionCommentPost    = "Comment on Post"
	ActionUpdateUserRole = "Update User Role"
	ActionDeleteUser     = "Delete User"
)

// ActivityLog is an audit entry. Entries are never updated or deleted.
type ActivityLog struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"userId"`
	User      *UserSummary `json:"user,omitempty"`
	Action    string       `json:"action"`
	Details   string       `json:"details"`
	Timestamp time.Time    `json:"timestamp"`
}
