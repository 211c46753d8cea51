// Package memory is an in-process implementation of the repository
// interfaces. It is intended for tests and local development wiring.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dashboard_api/internal/model"
	"dashboard_api/internal/repository"
)

// Store holds users, posts and activity logs behind a single lock so
// cross-entity joins see a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	users   map[int64]model.User
	emails  map[string]int64
	posts   map[int64]*postRow
	logs    []model.ActivityLog
	nextIDs struct{ user, post, comment, log int64 }

	now func() time.Time
}

type postRow struct {
	post     model.Post
	likes    []int64
	comments []model.Comment
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		users:  make(map[int64]model.User),
		emails: make(map[string]int64),
		posts:  make(map[int64]*postRow),
		now:    time.Now,
	}
}

// Users returns the store's UserRepository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Posts returns the store's PostRepository view.
func (s *Store) Posts() repository.PostRepository { return postRepo{s} }

// Logs returns the store's LogRepository view.
func (s *Store) Logs() repository.LogRepository { return logRepo{s} }

// Ping satisfies the health check contract.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) summary(id int64) *model.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return u.Summary()
}

// view materialises a post with joined authors. Callers hold s.mu.
func (s *Store) view(row *postRow) model.Post {
	p := row.post
	p.Author = s.summary(p.AuthorID)
	p.Likes = append([]int64{}, row.likes...)
	p.Comments = make([]model.Comment, len(row.comments))
	for i, c := range row.comments {
		c.Author = s.summary(c.AuthorID)
		p.Comments[i] = c
	}
	return p
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	s.nextIDs.user++
	user.ID = s.nextIDs.user
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (r userRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) List(context.Context) ([]model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r userRepo) UpdateProfile(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.FirstName = user.FirstName
	cur.MiddleName = user.MiddleName
	cur.LastName = user.LastName
	cur.PasswordHash = user.PasswordHash
	s.users[user.ID] = cur
	return nil
}

func (r userRepo) UpdateRole(_ context.Context, id int64, role model.Role) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	s.users[id] = u
	return &u, nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	delete(s.emails, u.Email)
	return nil
}

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, p *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextIDs.post++
	p.ID = s.nextIDs.post
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.Likes = []int64{}
	p.Comments = []model.Comment{}
	stored := *p
	stored.Author = nil
	s.posts[p.ID] = &postRow{post: stored}
	return nil
}

func (r postRepo) FindByID(_ context.Context, id int64) (*model.Post, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	p := s.view(row)
	return &p, nil
}

func (r postRepo) List(_ context.Context, filter model.PostFilter) ([]model.Post, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]model.Post, 0, len(s.posts))
	for _, row := range s.posts {
		if filter.AuthorID != nil && row.post.AuthorID != *filter.AuthorID {
			continue
		}
		posts = append(posts, s.view(row))
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (r postRepo) Update(_ context.Context, p *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.posts[p.ID]
	if !ok || row.post.AuthorID != p.AuthorID {
		return repository.ErrNotFound
	}
	row.post.Title = p.Title
	row.post.Content = p.Content
	row.post.Image = p.Image
	row.post.UpdatedAt = s.now()
	p.UpdatedAt = row.post.UpdatedAt
	return nil
}

func (r postRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (r postRepo) ToggleLike(_ context.Context, postID, userID int64) (*model.LikeResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.posts[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i, id := range row.likes {
		if id == userID {
			row.likes = append(row.likes[:i], row.likes[i+1:]...)
			return &model.LikeResult{Liked: false, Likes: len(row.likes)}, nil
		}
	}
	row.likes = append(row.likes, userID)
	return &model.LikeResult{Liked: true, Likes: len(row.likes)}, nil
}

func (r postRepo) AddComment(_ context.Context, c *model.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.posts[c.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	s.nextIDs.comment++
	c.ID = s.nextIDs.comment
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	stored := *c
	stored.Author = nil
	row.comments = append(row.comments, stored)
	return nil
}

type logRepo struct{ s *Store }

func (r logRepo) Create(_ context.Context, l *model.ActivityLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextIDs.log++
	l.ID = s.nextIDs.log
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now()
	}
	stored := *l
	stored.User = nil
	s.logs = append(s.logs, stored)
	return nil
}

func (r logRepo) List(context.Context) ([]model.ActivityLog, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]model.ActivityLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		l.User = s.summary(l.UserID)
		logs = append(logs, l)
	}
	return logs, nil
}
