package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/task"
)

type taskRepository struct {
	base
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{base{db: db}}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	id, err := repo.insert(ctx, "tasks", t)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	t.ID = id
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id int64) (task.Task, error) {
	return getRow[task.Task](ctx, repo.base, "tasks", id, task.ErrNotFound)
}

func (repo *taskRepository) ListTasks(ctx context.Context, assignedToID *int64) ([]task.Task, error) {
	where := sq.And{}
	if assignedToID != nil {
		where = append(where, sq.Eq{"assigned_to_id": *assignedToID})
	}
	return listRows[task.Task](ctx, repo.base, "tasks", where, "created_at DESC", "id DESC")
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if err := updateRow(ctx, repo.base, "tasks", t.ID, t, task.ErrNotFound); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id int64) error {
	return deleteRow(ctx, repo.base, "tasks", id, task.ErrNotFound)
}

func (repo *taskRepository) CreateComment(ctx context.Context, c task.Comment) (task.Comment, error) {
	id, err := repo.insert(ctx, "task_comments", c)
	if err != nil {
		return task.Comment{}, errors.Wrap(err, "inserting task comment")
	}
	c.ID = id
	return c, nil
}

func (repo *taskRepository) ListComments(ctx context.Context, taskIDs ...int64) ([]task.Comment, error) {
	if len(taskIDs) == 0 {
		return []task.Comment{}, nil
	}
	return listRows[task.Comment](ctx, repo.base, "task_comments", sq.Eq{"task_id": taskIDs}, "created_at", "id")
}
