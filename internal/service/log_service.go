package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dashboard_api/internal/model"
	"dashboard_api/internal/policy"
	"dashboard_api/internal/repository"
)

// ActivityRecorder appends audit entries after successful mutations. A failed
// write is logged and never fails the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, actor model.Actor, action, details string)
}

// LogService provides read access to the activity log and records entries.
type LogService interface {
	ActivityRecorder
	List(ctx context.Context, actor model.Actor) ([]model.ActivityLog, error)
}

type logService struct {
	repo repository.LogRepository
	now  func() time.Time
}

// NewLogService creates a new LogService
func NewLogService(repo repository.LogRepository) LogService {
	return &logService{repo: repo, now: time.Now}
}

// Record writes an entry. The request context may already be cancelled once
// the mutation committed, so the write runs without its cancellation.
func (s *logService) Record(ctx context.Context, actor model.Actor, action, details string) {
	entry := &model.ActivityLog{
		UserID:    actor.ID,
		Action:    action,
		Details:   details,
		Timestamp: s.now(),
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		slog.ErrorContext(ctx, "failed to record activity",
			slog.Int64("actor_id", actor.ID),
			slog.String("action", action),
			slog.String("error", err.Error()))
	}
}

// List returns every entry newest first. Admin only.
func (s *logService) List(ctx context.Context, actor model.Actor) ([]model.ActivityLog, error) {
	if err := policy.Check(actor.Role, policy.ViewLogs); err != nil {
		return nil, err
	}
	logs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, nil
}

func describe(actor model.Actor, format string, args ...any) string {
	return fmt.Sprintf("User %s ", actor.Name) + fmt.Sprintf(format, args...)
}
