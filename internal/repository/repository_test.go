package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"dashboard_api/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "first_name", "middle_name", "last_name", "email", "password_hash", "role", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)
		u := &model.User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", PasswordHash: "h", Role: model.RoleViewer, CreatedAt: time.Now()}

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("Ann", "", "Lee", "ann@example.com", "h", "viewer", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, int64(7), u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to duplicate email", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "dup@example.com",
				pgxmock.AnyArg(), "viewer", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, &model.User{Email: "dup@example.com", Role: model.RoleViewer})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewUserRepository(mock)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "Ann", "", "Lee", "ann@example.com", "hash", "editor", created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userCols))

	u, err := repo.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleEditor, u.Role)
	assert.Equal(t, created, u.CreatedAt)

	u, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateRoleAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET role = $1 WHERE id = $2")).
		WithArgs("admin", int64(3)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(3), "Bo", "", "Ng", "bo@example.com", "hash", "admin", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET role = $1 WHERE id = $2")).
		WithArgs("admin", int64(99)).
		WillReturnRows(pgxmock.NewRows(userCols))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	u, err := repo.UpdateRole(ctx, 3, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	u, err = repo.UpdateRole(ctx, 99, model.RoleAdmin)
	assert.NoError(t, err)
	assert.Nil(t, u)

	assert.ErrorIs(t, repo.Delete(ctx, 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_FindByIDHydrates(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts p LEFT JOIN users u ON u.id = p.author_id WHERE p.id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "content", "image", "author_id", "created_at", "updated_at",
			"uid", "first", "middle", "last", "email", "role"}).
			AddRow(int64(5), "Hello", "Body", "", int64(2), now, now, int64(2), "Ed", "", "Itor", "ed@example.com", "editor"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_likes WHERE post_id = ANY($1)")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"post_id", "user_id"}).AddRow(int64(5), int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_comments c LEFT JOIN users u")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "author_id", "content", "created_at",
			"uid", "first", "middle", "last", "email", "role"}).
			AddRow(int64(1), int64(5), int64(4), "nice", now, int64(0), "", "", "", "", ""))

	p, err := repo.FindByID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int64{9}, p.Likes)
	require.NotNil(t, p.Author)
	assert.Equal(t, "Ed", p.Author.FirstName)
	require.Len(t, p.Comments, 1)
	assert.Nil(t, p.Comments[0].Author, "deleted commenter has no summary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("adds like when absent", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM posts WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM post_likes")).
			WithArgs(int64(5), int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO post_likes")).
			WithArgs(int64(5), int64(9)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM post_likes")).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectCommit()

		res, err := repo.ToggleLike(ctx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, &model.LikeResult{Liked: true, Likes: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removes like when present", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM post_likes")).
			WithArgs(int64(5), int64(9)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM post_likes")).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectCommit()

		res, err := repo.ToggleLike(ctx, 5, 9)
		require.NoError(t, err)
		assert.False(t, res.Liked)
		assert.Equal(t, 0, res.Likes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing post rolls back", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(int64(404)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := repo.ToggleLike(ctx, 404, 9)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_UpdateNotOwned(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE posts")).
		WithArgs("t", "c", "", int64(5), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &model.Post{ID: 5, AuthorID: 3, Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_AddCommentMissingPost(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO post_comments")).
		WithArgs(int64(1), int64(2), "x", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.AddComment(context.Background(), &model.Comment{PostID: 1, AuthorID: 2, Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewLogRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO activity_logs")).
		WithArgs(int64(1), model.ActionCreatePost, "details", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_logs l LEFT JOIN users u")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "action", "details", "created_at",
			"uid", "first", "middle", "last", "email", "role"}).
			AddRow(int64(10), int64(1), model.ActionCreatePost, "details", now, int64(1), "Ad", "", "Min", "admin@example.com", "admin"))

	entry := &model.ActivityLog{UserID: 1, Action: model.ActionCreatePost, Details: "details", Timestamp: now}
	require.NoError(t, repo.Create(ctx, entry))
	assert.Equal(t, int64(10), entry.ID)

	logs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, model.RoleAdmin, logs[0].User.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPgCode(t *testing.T) {
	assert.True(t, hasPgCode(&pgconn.PgError{Code: "23505"}, pgUniqueViolation))
	assert.False(t, hasPgCode(errors.New("boom"), pgUniqueViolation))
}
