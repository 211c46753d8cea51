package service

import (
	"context"
	"errors"
	"fmt"

	"dashboard_api/internal/apperr"
	"dashboard_api/internal/cache"
	"dashboard_api/internal/model"
	"dashboard_api/internal/policy"
	"dashboard_api/internal/repository"
)

var (
	ErrSelfDelete  = apperr.Forbidden("SELF_DELETE", "You cannot delete your own account")
	ErrInvalidRole = apperr.Validation("INVALID_ROLE", "Role must be one of admin, editor, viewer")
)

// UserService is the admin-only user management surface.
type UserService interface {
	List(ctx context.Context, actor model.Actor) ([]model.User, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.User, error)
	UpdateRole(ctx context.Context, actor model.Actor, id int64, role string) (*model.User, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
}

type userService struct {
	repo     repository.UserRepository
	users    *cache.UserCache
	recorder ActivityRecorder
}

// NewUserService creates a new UserService. users may be nil.
func NewUserService(repo repository.UserRepository, users *cache.UserCache, recorder ActivityRecorder) UserService {
	return &userService{repo: repo, users: users, recorder: recorder}
}

func (s *userService) List(ctx context.Context, actor model.Actor) ([]model.User, error) {
	if err := policy.Check(actor.Role, policy.ManageUsers); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor model.Actor, id int64) (*model.User, error) {
	if err := policy.Check(actor.Role, policy.ManageUsers); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor model.Actor, id int64, role string) (*model.User, error) {
	if err := policy.Check(actor.Role, policy.ManageUsers); err != nil {
		return nil, err
	}
	newRole, ok := model.ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}

	user, err := s.repo.UpdateRole(ctx, id, newRole)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	s.users.Invalidate(ctx, id)

	s.recorder.Record(ctx, actor, model.ActionUpdateUserRole,
		describe(actor, "updated role of %s %s to %s", user.FirstName, user.LastName, newRole))
	return user, nil
}

// Delete removes a user account. Deleting oneself is rejected before any
// lookup, whatever the actor's role.
func (s *userService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	if id == actor.ID {
		return ErrSelfDelete
	}
	if err := policy.Check(actor.Role, policy.ManageUsers); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.users.Invalidate(ctx, id)

	s.recorder.Record(ctx, actor, model.ActionDeleteUser,
		describe(actor, "deleted user %s %s", user.FirstName, user.LastName))
	return nil
}
