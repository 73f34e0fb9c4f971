package inmemdb

import (
	"context"
	"sort"

	"github.com/janisrealty/janis/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	tbl := repo.db.tasks
	tbl.Lock()
	defer tbl.Unlock()
	t.ID = tbl.nextID()
	tbl.put(t.ID, t)
	return t, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id int64) (task.Task, error) {
	tbl := repo.db.tasks
	tbl.RLock()
	defer tbl.RUnlock()
	if t, ok := tbl.rows[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) ListTasks(_ context.Context, assignedToID *int64) ([]task.Task, error) {
	tbl := repo.db.tasks
	tbl.RLock()
	defer tbl.RUnlock()
	tasks := tbl.list(func(t task.Task) bool { return assignedToID == nil || eqPtr(t.AssignedToID, *assignedToID) })
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	tbl := repo.db.tasks
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	t.Comments = nil
	tbl.put(t.ID, t)
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id int64) error {
	tbl := repo.db.tasks
	tbl.Lock()
	n := tbl.remove(func(t task.Task) bool { return t.ID == id })
	tbl.Unlock()
	if n == 0 {
		return task.ErrNotFound
	}
	repo.db.comments.Lock()
	repo.db.comments.remove(func(c task.Comment) bool { return c.TaskID == id })
	repo.db.comments.Unlock()
	return nil
}

func (repo *taskRepository) CreateComment(_ context.Context, c task.Comment) (task.Comment, error) {
	tbl := repo.db.comments
	tbl.Lock()
	defer tbl.Unlock()
	c.ID = tbl.nextID()
	tbl.put(c.ID, c)
	return c, nil
}

func (repo *taskRepository) ListComments(_ context.Context, taskIDs ...int64) ([]task.Comment, error) {
	tbl := repo.db.comments
	tbl.RLock()
	defer tbl.RUnlock()
	comments := tbl.list(func(c task.Comment) bool { return containsID(taskIDs, c.TaskID) })
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}
