package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
)

// ITaskRepository defines task list lookups
type ITaskRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Task, error)
	GetByHashtag(ctx context.Context, hashtag string) (*models.Task, error)
}

// TaskRepository reads the task list
type TaskRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(q db.Querier) *TaskRepository {
	return &TaskRepository{db: q, sb: newBuilder()}
}

// List returns tasks ordered by hashtag
func (r *TaskRepository) List(ctx context.Context, activeOnly bool) ([]models.Task, error) {
	q := r.sb.Select("id", "hashtag", "title", "karma", "active").
		From("task_list").
		OrderBy("hashtag")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("list tasks", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Hashtag, &t.Title, &t.Karma, &t.Active); err != nil {
			return nil, fmt.Errorf("error scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetByHashtag retrieves a task regardless of its active flag
func (r *TaskRepository) GetByHashtag(ctx context.Context, hashtag string) (*models.Task, error) {
	sql, args, err := r.sb.Select("id", "hashtag", "title", "karma", "active").
		From("task_list").
		Where(squirrel.Eq{"hashtag": hashtag}).
		ToSql()
	if err != nil {
		return nil, buildErr("get task", err)
	}

	t := &models.Task{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Hashtag, &t.Title, &t.Karma, &t.Active); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("error retrieving task: %w", err)
	}
	return t, nil
}
