package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/task"
)

type taskApi struct {
	base
	svc *task.Service
}

func registerTaskAPI(g *echo.Group, b base, svc *task.Service) {
	api := taskApi{base: b, svc: svc}
	g.GET("", api.list)
	g.GET("/board", api.board)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/status", api.setStatus)
	g.POST("/:id/comments", api.addComment)
}

func (api *taskApi) list(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) board(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	b, err := api.svc.Board(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "building task board")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *taskApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data task.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	t, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "getting task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data task.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	t, err := api.svc.Update(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), usr, id); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) setStatus(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data task.StatusUpdate
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	t, err := api.svc.SetStatus(ctx.Request().Context(), usr, id, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) addComment(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data task.NewComment
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	c, err := api.svc.AddComment(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "adding task comment")
	}
	return ctx.JSON(http.StatusCreated, c)
}
