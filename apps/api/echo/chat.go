package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/chat"
)

type chatApi struct {
	base
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, b base, svc *chat.Service) {
	api := chatApi{base: b, svc: svc}
	g.GET("/conversations", api.list)
	g.POST("/conversations", api.create)
	g.GET("/conversations/:id", api.retrieve)
	g.GET("/conversations/:id/messages", api.messages)
	g.POST("/conversations/:id/messages", api.send)
	g.POST("/conversations/:id/attachments", api.attach)
}

func (api *chatApi) list(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	convs, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	if convs == nil {
		convs = []chat.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *chatApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data chat.NewConversation
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating conversation")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *chatApi) retrieve(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "getting conversation")
	}
	return ctx.JSON(http.StatusOK, c)
}

// messages polls the conversation; ?since takes an RFC 3339 timestamp.
func (api *chatApi) messages(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var since time.Time
	if s := ctx.QueryParam("since"); s != "" {
		if since, err = time.Parse(time.RFC3339, s); err != nil {
			return core.NewFieldError("since", "invalid timestamp, use RFC 3339")
		}
	}
	msgs, err := api.svc.Messages(ctx.Request().Context(), usr, id, since)
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) send(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	msg, err := api.svc.Send(ctx.Request().Context(), usr, id, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) attach(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	up, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer up.r.Close()

	msg, err := api.svc.Attach(ctx.Request().Context(), usr, id, up.r, up.filename, up.contentType, up.size)
	if err != nil {
		return errors.Wrap(err, "attaching file")
	}
	return ctx.JSON(http.StatusCreated, msg)
}
