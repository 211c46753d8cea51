package repository

import (
	"context"
	"errors"

	"dashboard_api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by mutations that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already exists")
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// userColumns selects a LEFT JOINed user as a summary; a missing user
// yields id 0.
func userColumns(alias string) string {
	return "COALESCE(" + alias + ".id, 0), COALESCE(" + alias + ".first_name, ''), " +
		"COALESCE(" + alias + ".middle_name, ''), COALESCE(" + alias + ".last_name, ''), " +
		"COALESCE(" + alias + ".email, ''), COALESCE(" + alias + ".role, '')"
}

type summaryScan struct {
	id                               int64
	first, middle, last, email, role string
}

func (s *summaryScan) targets() []any {
	return []any{&s.id, &s.first, &s.middle, &s.last, &s.email, &s.role}
}

func (s *summaryScan) summary() *model.UserSummary {
	if s.id == 0 {
		return nil
	}
	return &model.UserSummary{
		ID:         s.id,
		FirstName:  s.first,
		MiddleName: s.middle,
		LastName:   s.last,
		Email:      s.email,
		Role:       model.Role(s.role),
	}
}
