package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dashboard_api/internal/metrics"
	"dashboard_api/internal/model"

	"github.com/jackc/pgx/v5"
)

// PostRepository defines operations for posts, their likes and comments
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id int64) (*model.Post, error)
	List(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID, userID int64) (*model.LikeResult, error)
	AddComment(ctx context.Context, comment *model.Comment) error
}

type postRepository struct {
	db DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db DB) PostRepository {
	return &postRepository{db: db}
}

var postSelect = `SELECT p.id, p.title, p.content, p.image, p.author_id, p.created_at, p.updated_at, ` +
	userColumns("u") + ` FROM posts p LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (*model.Post, error) {
	p := &model.Post{}
	var author summaryScan
	dest := append([]any{&p.ID, &p.Title, &p.Content, &p.Image, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt}, author.targets()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.Author = author.summary()
	p.Likes = []int64{}
	p.Comments = []model.Comment{}
	return p, nil
}

// Create inserts a new post
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	defer metrics.TrackQuery("insert", "posts")()

	sql := `INSERT INTO posts (title, content, image, author_id, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, p.Title, p.Content, p.Image, p.AuthorID, p.CreatedAt, p.UpdatedAt).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if p.Likes == nil {
		p.Likes = []int64{}
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	return nil
}

// FindByID retrieves a post with its author, likes and comments. A missing
// post is (nil, nil).
func (r *postRepository) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	defer metrics.TrackQuery("select", "posts")()

	p, err := scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	posts := []model.Post{*p}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// List retrieves posts newest first with optional filters
func (r *postRepository) List(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	defer metrics.TrackQuery("select", "posts")()

	var queryBuilder strings.Builder
	queryBuilder.WriteString(postSelect)
	args := []any{}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		queryBuilder.WriteString(fmt.Sprintf(" WHERE p.author_id = $%d", len(args)))
	}
	queryBuilder.WriteString(" ORDER BY p.created_at DESC, p.id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}
	rows.Close()

	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// hydrate loads likes and comments for posts in two batched queries.
func (r *postRepository) hydrate(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
	}

	likeRows, err := r.db.Query(ctx,
		`SELECT post_id, user_id FROM post_likes WHERE post_id = ANY($1) ORDER BY created_at ASC, user_id ASC`, ids)
	if err != nil {
		return fmt.Errorf("failed to query post likes: %w", err)
	}
	for likeRows.Next() {
		var postID, userID int64
		if err := likeRows.Scan(&postID, &userID); err != nil {
			likeRows.Close()
			return fmt.Errorf("failed to scan like row: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Likes = append(posts[i].Likes, userID)
		}
	}
	likeRows.Close()
	if err := likeRows.Err(); err != nil {
		return fmt.Errorf("error iterating like rows: %w", err)
	}

	commentRows, err := r.db.Query(ctx,
		`SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, `+userColumns("u")+`
         FROM post_comments c LEFT JOIN users u ON u.id = c.author_id
         WHERE c.post_id = ANY($1) ORDER BY c.created_at ASC, c.id ASC`, ids)
	if err != nil {
		return fmt.Errorf("failed to query post comments: %w", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var c model.Comment
		var author summaryScan
		dest := append([]any{&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt}, author.targets()...)
		if err := commentRows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan comment row: %w", err)
		}
		c.Author = author.summary()
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	if err := commentRows.Err(); err != nil {
		return fmt.Errorf("error iterating comment rows: %w", err)
	}
	return nil
}

// Update writes title, content and image. The author must match.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	defer metrics.TrackQuery("update", "posts")()

	sql := `UPDATE posts
            SET title = $1, content = $2, image = $3, updated_at = NOW()
            WHERE id = $4 AND author_id = $5 RETURNING updated_at` // ensure author_id matches for ownership
	err := r.db.QueryRow(ctx, sql, p.Title, p.Content, p.Image, p.ID, p.AuthorID).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes a post; its likes and comments cascade.
func (r *postRepository) Delete(ctx context.Context, id int64) error {
	defer metrics.TrackQuery("delete", "posts")()

	cmdTag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike removes the user's like if present, otherwise adds it, and
// returns the resulting state. The post row is locked for the duration.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int64) (res *model.LikeResult, err error) {
	defer metrics.TrackQuery("toggle_like", "post_likes")()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin like transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var lockedID int64
	if err = tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}
	liked := tag.RowsAffected() == 0
	if liked {
		if _, err = tx.Exec(ctx,
			`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID); err != nil {
			return nil, fmt.Errorf("failed to add like: %w", err)
		}
	}

	var count int64
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit like transaction: %w", err)
	}
	return &model.LikeResult{Liked: liked, Likes: int(count)}, nil
}

// AddComment appends a comment to a post. A missing post is ErrNotFound.
func (r *postRepository) AddComment(ctx context.Context, c *model.Comment) error {
	defer metrics.TrackQuery("insert", "post_comments")()

	sql := `INSERT INTO post_comments (post_id, author_id, content, created_at)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql, c.PostID, c.AuthorID, c.Content, c.CreatedAt).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if hasPgCode(err, pgForeignKeyViolation) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}
