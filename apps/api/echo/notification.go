package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/notification"
)

const defaultPageSize = 20

type notificationApi struct {
	base
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, b base, svc *notification.Service) {
	api := notificationApi{base: b, svc: svc}
	g.GET("", api.list)
	g.GET("/unread-count", api.unreadCount)
	g.POST("/read-bulk", api.markReadBulk)
	g.POST("/:id/read", api.markRead)
}

func (api *notificationApi) list(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	limit := queryInt(ctx, "limit", defaultPageSize)
	offset := queryInt(ctx, "offset", 0)
	page, err := api.svc.List(ctx.Request().Context(), usr.ID, limit, offset)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	if page.Results == nil {
		page.Results = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, page)
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.UnreadCount(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, UnreadCountResponse{UnreadCount: n})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.svc.MarkRead(ctx.Request().Context(), usr.ID, id)
	if err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	return ctx.JSON(http.StatusOK, res)
}

type MarkReadRequest struct {
	IDs []int64 `json:"ids"`
}

func (api *notificationApi) markReadBulk(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data MarkReadRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	res, err := api.svc.MarkRead(ctx.Request().Context(), usr.ID, data.IDs...)
	if err != nil {
		return errors.Wrap(err, "marking notifications as read")
	}
	return ctx.JSON(http.StatusOK, res)
}
