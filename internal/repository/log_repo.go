package repository

import (
	"context"
	"fmt"

	"dashboard_api/internal/metrics"
	"dashboard_api/internal/model"
)

// LogRepository stores activity logs. There is no update or delete.
type LogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context) ([]model.ActivityLog, error)
}

type logRepository struct {
	db DB
}

// NewLogRepository creates a new LogRepository
func NewLogRepository(db DB) LogRepository {
	return &logRepository{db: db}
}

// Create appends an activity log entry
func (r *logRepository) Create(ctx context.Context, l *model.ActivityLog) error {
	defer metrics.TrackQuery("insert", "activity_logs")()

	sql := `INSERT INTO activity_logs (user_id, action, details, created_at)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, sql, l.UserID, l.Action, l.Details, l.Timestamp).Scan(&l.ID, &l.Timestamp); err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// List returns all entries newest first with the acting user joined
func (r *logRepository) List(ctx context.Context) ([]model.ActivityLog, error) {
	defer metrics.TrackQuery("select", "activity_logs")()

	sql := `SELECT l.id, l.user_id, l.action, l.details, l.created_at, ` + userColumns("u") + `
            FROM activity_logs l LEFT JOIN users u ON u.id = l.user_id
            ORDER BY l.created_at DESC, l.id DESC`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	logs := []model.ActivityLog{}
	for rows.Next() {
		var l model.ActivityLog
		var user summaryScan
		dest := append([]any{&l.ID, &l.UserID, &l.Action, &l.Details, &l.Timestamp}, user.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan activity log row: %w", err)
		}
		l.User = user.summary()
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log rows: %w", err)
	}
	return logs, nil
}
