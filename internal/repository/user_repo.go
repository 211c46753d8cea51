package repository

import (
	"context"
	"errors"
	"fmt"

	"dashboard_api/internal/metrics"
	"dashboard_api/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateRole(ctx context.Context, id int64, role model.Role) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userSelect = `SELECT id, first_name, middle_name, last_name, email, password_hash, role, created_at FROM users`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	if err := row.Scan(&u.ID, &u.FirstName, &u.MiddleName, &u.LastName, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	defer metrics.TrackQuery("insert", "users")()

	sql := `INSERT INTO users (first_name, middle_name, last_name, email, password_hash, role, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRow(ctx, sql, user.FirstName, user.MiddleName, user.LastName, user.Email,
		user.PasswordHash, string(user.Role), user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if hasPgCode(err, pgUniqueViolation) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer metrics.TrackQuery("select", "users")()

	user, err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID. A missing user is (nil, nil).
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	defer metrics.TrackQuery("select", "users")()

	user, err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// List returns every user in registration order.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	defer metrics.TrackQuery("select", "users")()

	rows, err := r.db.Query(ctx, userSelect+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// UpdateProfile writes the name fields and password hash.
func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	defer metrics.TrackQuery("update", "users")()

	sql := `UPDATE users SET first_name = $1, middle_name = $2, last_name = $3, password_hash = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, sql, user.FirstName, user.MiddleName, user.LastName, user.PasswordHash, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole sets a user's role and returns the updated user, or (nil, nil)
// when no such user exists.
func (r *userRepository) UpdateRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	defer metrics.TrackQuery("update", "users")()

	sql := `UPDATE users SET role = $1 WHERE id = $2
            RETURNING id, first_name, middle_name, last_name, email, password_hash, role, created_at`
	user, err := scanUser(r.db.QueryRow(ctx, sql, string(role), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	return user, nil
}

// Delete removes a user. Posts, comments, likes and logs referencing the
// user are kept.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	defer metrics.TrackQuery("delete", "users")()

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
