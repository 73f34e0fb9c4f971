package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/lead"
)

type leadApi struct {
	base
	svc *lead.Service
}

func registerLeadAPI(g *echo.Group, b base, svc *lead.Service) {
	api := leadApi{base: b, svc: svc}
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/status", api.setStatus)
	g.POST("/:id/send", api.send)
}

func (api *leadApi) lead(ctx echo.Context) (lead.Lead, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return lead.Lead{}, err
	}
	l, err := api.svc.Get(ctx.Request().Context(), id)
	return l, errors.Wrap(err, "getting lead")
}

func (api *leadApi) query(ctx echo.Context) error {
	var filter lead.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to lead.QueryFilter")
	}
	leads, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying leads")
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return ctx.JSON(http.StatusOK, leads)
}

// retrieve returns the lead with its WhatsApp conversation.
func (api *leadApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	d, err := api.svc.Detail(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting lead detail")
	}
	if d.Messages == nil {
		d.Messages = []lead.Message{}
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *leadApi) setStatus(ctx echo.Context) error {
	l, err := api.lead(ctx)
	if err != nil {
		return err
	}
	var data lead.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	l, err = api.svc.SetStatus(ctx.Request().Context(), l, data.StatusID)
	if err != nil {
		return errors.Wrap(err, "setting lead status")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *leadApi) send(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	l, err := api.lead(ctx)
	if err != nil {
		return err
	}
	var data lead.Outgoing
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	res, err := api.svc.Send(ctx.Request().Context(), l, usr.FullName(), data)
	if err != nil {
		return errors.Wrap(err, "sending whatsapp message")
	}
	return ctx.JSON(http.StatusOK, res)
}
