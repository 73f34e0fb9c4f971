package task

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("task not found")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id int64) (Task, error)
		// ListTasks sorts by created_at descending. A nil assignee lists every task.
		ListTasks(ctx context.Context, assignedToID *int64) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, id int64) error

		CreateComment(ctx context.Context, c Comment) (Comment, error)
		// ListComments sorts by created_at.
		ListComments(ctx context.Context, taskIDs ...int64) ([]Comment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func canWork(usr user.User, t Task) bool {
	return usr.IsSuperuser || (t.AssignedToID != nil && *t.AssignedToID == usr.ID)
}

// List returns every task to superusers and the tasks assigned to usr otherwise, with their comments.
func (svc *Service) List(ctx context.Context, usr user.User) ([]Task, error) {
	var assignee *int64
	if !usr.IsSuperuser {
		assignee = &usr.ID
	}
	tasks, err := svc.repo.ListTasks(ctx, assignee)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []Task{}, nil
	}

	ids := make([]int64, len(tasks))
	idx := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		idx[t.ID] = i
	}
	comments, err := svc.repo.ListComments(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		i := idx[c.TaskID]
		tasks[i].Comments = append(tasks[i].Comments, c)
	}
	return tasks, nil
}

func (svc *Service) Board(ctx context.Context, usr user.User) (Board, error) {
	tasks, err := svc.List(ctx, usr)
	if err != nil {
		return Board{}, err
	}
	b := Board{Pending: []Task{}, InProgress: []Task{}, Done: []Task{}}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			b.Pending = append(b.Pending, t)
		case StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case StatusDone:
			b.Done = append(b.Done, t)
		}
	}
	return b, nil
}

// Get returns the task if usr may work on it.
func (svc *Service) Get(ctx context.Context, usr user.User, id int64) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !canWork(usr, t) {
		return Task{}, core.ErrForbidden
	}
	return t, nil
}

func (svc *Service) Create(ctx context.Context, usr user.User, in Input) (Task, error) {
	if !usr.IsSuperuser {
		return Task{}, core.ErrForbidden
	}
	now := time.Now().UTC()
	return svc.repo.CreateTask(ctx, Task{
		Title:        in.Title,
		Description:  in.Description,
		AssignedToID: in.AssignedToID,
		Status:       StatusPending,
		Color:        in.Color,
		CreatedByID:  usr.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Update(ctx context.Context, usr user.User, id int64, in Input) (Task, error) {
	if !usr.IsSuperuser {
		return Task{}, core.ErrForbidden
	}
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Title = in.Title
	t.Description = in.Description
	t.AssignedToID = in.AssignedToID
	t.Color = in.Color
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, usr user.User, id int64) error {
	if !usr.IsSuperuser {
		return core.ErrForbidden
	}
	if _, err := svc.repo.GetTask(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteTask(ctx, id)
}

// SetStatus moves the task. Superusers may move any task, others only their own.
func (svc *Service) SetStatus(ctx context.Context, usr user.User, id int64, status string) (Task, error) {
	t, err := svc.Get(ctx, usr, id)
	if err != nil {
		return Task{}, err
	}
	if !validStatus(status) {
		return Task{}, core.NewFieldError("status", statusText)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) AddComment(ctx context.Context, usr user.User, id int64, nc NewComment) (Comment, error) {
	if _, err := svc.Get(ctx, usr, id); err != nil {
		return Comment{}, err
	}
	return svc.repo.CreateComment(ctx, Comment{
		TaskID:    id,
		UserID:    usr.ID,
		Content:   core.CleanString(nc.Content),
		CreatedAt: time.Now().UTC(),
	})
}
