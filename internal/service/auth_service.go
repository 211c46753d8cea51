package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dashboard_api/internal/apperr"
	"dashboard_api/internal/cache"
	"dashboard_api/internal/model"
	"dashboard_api/internal/repository"
	"dashboard_api/internal/utils"
	"dashboard_api/internal/validation"
)

var (
	ErrUserAlreadyExists  = apperr.Conflict("EMAIL_EXISTS", "User with this email already exists")
	ErrInvalidCredentials = apperr.Auth("INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidToken       = apperr.Auth("INVALID_TOKEN", "Invalid or expired token")
	ErrAccountNotFound    = apperr.Auth("ACCOUNT_NOT_FOUND", "User no longer exists")
	ErrWrongPassword      = apperr.Validation("WRONG_PASSWORD", "Current password is incorrect")
	ErrUserNotFound       = apperr.NotFound("USER_NOT_FOUND", "User not found")
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	ValidateToken(ctx context.Context, token string) (*model.User, error)
	Me(ctx context.Context, actor model.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor model.Actor, req model.UpdateProfileRequest) (*model.User, string, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtUtil           *utils.JWTUtil
	users             *cache.UserCache
	recorder          ActivityRecorder
	initialAdminEmail string
}

// NewAuthService creates a new AuthService. users may be nil to disable the
// user cache; initialAdminEmail, when set, registers that address as admin.
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, users *cache.UserCache,
	recorder ActivityRecorder, initialAdminEmail string) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtUtil:           jwtUtil,
		users:             users,
		recorder:          recorder,
		initialAdminEmail: model.NormalizeEmail(initialAdminEmail),
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	email := model.NormalizeEmail(req.Email)
	if err := validation.ValidateName("firstName", req.FirstName); err != nil {
		return nil, "", apperr.Invalid("%s", err.Error())
	}
	if err := validation.ValidateName("lastName", req.LastName); err != nil {
		return nil, "", apperr.Invalid("%s", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", apperr.Invalid("%s", err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, "", apperr.Invalid("%s", err.Error())
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userRole := model.RoleViewer // Default role

	// Check for initial admin setup
	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		userRole = model.RoleAdmin
		slog.InfoContext(ctx, "Registering initial admin via INITIAL_ADMIN_EMAIL", slog.String("email", email))
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		MiddleName:   strings.TrimSpace(req.MiddleName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         userRole,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		slog.ErrorContext(ctx, "User created, but failed to generate token",
			slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	s.recorder.Record(ctx, model.ActorOf(user), model.ActionRegister, describe(model.ActorOf(user), "registered"))
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials // User not found
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials // Password mismatch
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// ValidateToken resolves a bearer token to the current stored user. The
// returned role comes from the store, not from the token claims.
func (s *authService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	user, err := s.users.Load(ctx, claims.UserID, func() (*model.User, error) {
		return s.userRepo.FindByID(ctx, claims.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	return user, nil
}

// Me returns the authenticated user's stored record.
func (s *authService) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes name fields and optionally the password. A new token
// is returned only when the password changed.
func (s *authService) UpdateProfile(ctx context.Context, actor model.Actor, req model.UpdateProfileRequest) (*model.User, string, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}

	if req.FirstName != nil {
		if err := validation.ValidateName("firstName", *req.FirstName); err != nil {
			return nil, "", apperr.Invalid("%s", err.Error())
		}
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.MiddleName != nil {
		user.MiddleName = strings.TrimSpace(*req.MiddleName)
	}
	if req.LastName != nil {
		if err := validation.ValidateName("lastName", *req.LastName); err != nil {
			return nil, "", apperr.Invalid("%s", err.Error())
		}
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	passwordChanged := false
	if req.NewPassword != "" {
		if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
			return nil, "", ErrWrongPassword
		}
		if err := validation.ValidatePassword(req.NewPassword); err != nil {
			return nil, "", apperr.Invalid("%s", err.Error())
		}
		hashed, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
		passwordChanged = true
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to update profile: %w", err)
	}
	s.users.Invalidate(ctx, user.ID)

	var token string
	if passwordChanged {
		if token, err = s.jwtUtil.GenerateToken(user.ID, user.Role); err != nil {
			return nil, "", fmt.Errorf("failed to generate token: %w", err)
		}
	}

	updated := model.ActorOf(user)
	s.recorder.Record(ctx, updated, model.ActionUpdateProfile, describe(updated, "updated their profile"))
	return user, token, nil
}
