package model

import "time"

// Post is a piece of content written by an editor or admin.
type Post struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Image     string       `json:"image,omitempty"` // data URI
	AuthorID  int64        `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	Likes     []int64      `json:"likes"`
	Comments  []Comment    `json:"comments"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID int64) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is an append-only remark on a post.
type Comment struct {
	ID        int64        `json:"id"`
	PostID    int64        `json:"postId"`
	Content   string       `json:"content"`
	AuthorID  int64        `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CreatePostRequest is used for creating a new post
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Image   string `json:"image"`
}

// UpdatePostRequest carries a partial post update.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"` // Pointers to allow partial updates
	Content *string `json:"content,omitempty"`
	Image   *string `json:"image,omitempty"`
}

// AddCommentRequest is the body of POST /posts/:id/comment.
type AddCommentRequest struct {
	Content string `json:"content"`
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// PostFilter narrows a post listing. A zero value lists every post.
type PostFilter struct {
	AuthorID *int64
}
