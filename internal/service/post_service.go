package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dashboard_api/internal/apperr"
	"dashboard_api/internal/model"
	"dashboard_api/internal/policy"
	"dashboard_api/internal/repository"
	"dashboard_api/internal/validation"
)

var ErrPostNotFound = apperr.NotFound("POST_NOT_FOUND", "Post not found")

// PostService defines operations for posts. Every method takes the
// authenticated actor and enforces the policy itself.
type PostService interface {
	Create(ctx context.Context, actor model.Actor, req model.CreatePostRequest) (*model.Post, error)
	List(ctx context.Context, actor model.Actor) ([]model.Post, error)
	ListByAuthor(ctx context.Context, actor model.Actor, authorID int64) ([]model.Post, error)
	ListMine(ctx context.Context, actor model.Actor) ([]model.Post, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.Post, error)
	Update(ctx context.Context, actor model.Actor, id int64, req model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
	ToggleLike(ctx context.Context, actor model.Actor, id int64) (*model.LikeResult, error)
	AddComment(ctx context.Context, actor model.Actor, id int64, content string) (*model.Post, error)
}

type postService struct {
	repo     repository.PostRepository
	recorder ActivityRecorder
}

// NewPostService creates a new PostService
func NewPostService(repo repository.PostRepository, recorder ActivityRecorder) PostService {
	return &postService{repo: repo, recorder: recorder}
}

func (s *postService) Create(ctx context.Context, actor model.Actor, req model.CreatePostRequest) (*model.Post, error) {
	if err := policy.Check(actor.Role, policy.ManageOwnPosts); err != nil {
		return nil, err
	}
	if err := validation.ValidateTitle(req.Title); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Invalid("content is required")
	}
	if err := validation.ValidateImage(req.Image); err != nil {
		return nil, apperr.Invalid("%s", err.Error())
	}

	now := time.Now()
	post := &model.Post{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Image:     req.Image,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.recorder.Record(ctx, actor, model.ActionCreatePost, describe(actor, "created post: %s", post.Title))
	return s.reload(ctx, post.ID)
}

func (s *postService) List(ctx context.Context, actor model.Actor) ([]model.Post, error) {
	if err := policy.Check(actor.Role, policy.ViewPosts); err != nil {
		return nil, err
	}
	posts, err := s.repo.List(ctx, model.PostFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) ListByAuthor(ctx context.Context, actor model.Actor, authorID int64) ([]model.Post, error) {
	if err := policy.Check(actor.Role, policy.ViewPosts); err != nil {
		return nil, err
	}
	posts, err := s.repo.List(ctx, model.PostFilter{AuthorID: &authorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// ListMine lists the actor's own posts. Only roles that can author posts
// have a "my posts" view.
func (s *postService) ListMine(ctx context.Context, actor model.Actor) ([]model.Post, error) {
	if err := policy.Check(actor.Role, policy.ManageOwnPosts); err != nil {
		return nil, err
	}
	return s.ListByAuthor(ctx, actor, actor.ID)
}

func (s *postService) Get(ctx context.Context, actor model.Actor, id int64) (*model.Post, error) {
	if err := policy.Check(actor.Role, policy.ViewPosts); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *postService) Update(ctx context.Context, actor model.Actor, id int64, req model.UpdatePostRequest) (*model.Post, error) {
	if err := policy.Check(actor.Role, policy.ManageOwnPosts); err != nil {
		return nil, err
	}
	post, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckPostMutation(actor, post.AuthorID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := validation.ValidateTitle(*req.Title); err != nil {
			return nil, apperr.Invalid("%s", err.Error())
		}
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, apperr.Invalid("content is required")
		}
		post.Content = *req.Content
	}
	if req.Image != nil {
		if err := validation.ValidateImage(*req.Image); err != nil {
			return nil, apperr.Invalid("%s", err.Error())
		}
		post.Image = *req.Image
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.recorder.Record(ctx, actor, model.ActionUpdatePost, describe(actor, "updated their post: %s", post.Title))
	return s.reload(ctx, id)
}

func (s *postService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if err := policy.Check(actor.Role, policy.ManageOwnPosts); err != nil {
		return err
	}
	post, err := s.reload(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CheckPostMutation(actor, post.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.recorder.Record(ctx, actor, model.ActionDeletePost, describe(actor, "deleted their post: %s", post.Title))
	return nil
}

// ToggleLike likes the post, or removes the actor's like if already present.
// Only the like direction is recorded in the activity log.
func (s *postService) ToggleLike(ctx context.Context, actor model.Actor, id int64) (*model.LikeResult, error) {
	if err := policy.Check(actor.Role, policy.ViewPosts); err != nil {
		return nil, err
	}
	post, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.repo.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	if res.Liked {
		s.recorder.Record(ctx, actor, model.ActionLikePost, describe(actor, "liked post: %s", post.Title))
	}
	return res, nil
}

func (s *postService) AddComment(ctx context.Context, actor model.Actor, id int64, content string) (*model.Post, error) {
	if err := policy.Check(actor.Role, policy.ViewPosts); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Invalid("comment content is required")
	}

	comment := &model.Comment{
		PostID:    id,
		AuthorID:  actor.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	post, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, actor, model.ActionCommentPost, describe(actor, "commented on post: %s", post.Title))
	return post, nil
}

func (s *postService) reload(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}
