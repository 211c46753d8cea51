// Package seed creates the demo accounts and optional fake posts for local
// development. It is not used by the API server.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"dashboard_api/internal/model"
	"dashboard_api/internal/repository"
	"dashboard_api/internal/utils"

	"github.com/brianvoe/gofakeit/v6"
)

// Account is a demo login.
type Account struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
}

// DemoAccounts are created when missing, one per role.
var DemoAccounts = []Account{
	{FirstName: "Admin", LastName: "User", Email: "admin@example.com", Password: "Admin123!", Role: model.RoleAdmin},
	{FirstName: "Editor", LastName: "User", Email: "editor@example.com", Password: "Editor123@", Role: model.RoleEditor},
	{FirstName: "Viewer", LastName: "User", Email: "viewer@example.com", Password: "Viewer123#", Role: model.RoleViewer},
}

// Options controls a seeding run.
type Options struct {
	// Posts is the number of fake posts authored by the demo editor.
	Posts int
	// MaxDays spreads post creation times over this many past days.
	MaxDays int
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Result summarises a seeding run.
type Result struct {
	Created  []model.User
	Existing []model.User
	Posts    int
}

// Seeder persists demo data through the repositories.
type Seeder struct {
	users repository.UserRepository
	posts repository.PostRepository
	rng   *rand.Rand
}

// NewSeeder creates a Seeder.
func NewSeeder(users repository.UserRepository, posts repository.PostRepository) *Seeder {
	return &Seeder{users: users, posts: posts}
}

// Run seeds the demo accounts and then opts.Posts posts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	s.rng = rand.New(rand.NewSource(seed))

	res := &Result{}
	var editor *model.User
	for _, acc := range DemoAccounts {
		u, created, err := s.ensureAccount(ctx, acc)
		if err != nil {
			return nil, err
		}
		if created {
			res.Created = append(res.Created, *u)
		} else {
			res.Existing = append(res.Existing, *u)
		}
		if acc.Role == model.RoleEditor {
			editor = u
		}
	}

	for i := 0; i < opts.Posts; i++ {
		post := s.BuildPost(editor.ID, opts.MaxDays)
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("failed to create seed post: %w", err)
		}
		res.Posts++
	}
	return res, nil
}

// ensureAccount creates acc unless its email exists. Existing accounts are
// left untouched.
func (s *Seeder) ensureAccount(ctx context.Context, acc Account) (*model.User, bool, error) {
	email := model.NormalizeEmail(acc.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up %s: %w", email, err)
	}
	if existing != nil {
		slog.InfoContext(ctx, "demo account exists, skipping", slog.String("email", email))
		return existing, false, nil
	}

	hash, err := utils.HashPassword(acc.Password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &model.User{
		FirstName:    acc.FirstName,
		LastName:     acc.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         acc.Role,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("failed to create %s: %w", email, err)
	}
	slog.InfoContext(ctx, "demo account created", slog.String("email", email), slog.String("role", acc.Role.String()))
	return u, true, nil
}

// BuildPost constructs a fake post by authorID without persisting it.
func (s *Seeder) BuildPost(authorID int64, maxDays int) *model.Post {
	if maxDays <= 0 {
		maxDays = 90
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// realistic created_at spread
	back := time.Duration(s.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(s.rng.Intn(24))*time.Hour +
		time.Duration(s.rng.Intn(60))*time.Minute
	created := time.Now().Add(-back)

	return &model.Post{
		Title:     gofakeit.Sentence(5),
		Content:   gofakeit.Paragraph(1, 3, 5, "\n"),
		AuthorID:  authorID,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
