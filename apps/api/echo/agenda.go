package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/agenda"
)

type agendaApi struct {
	base
	svc *agenda.Service
}

func registerAgendaAPI(v1 *echo.Group, authed []echo.MiddlewareFunc, b base, svc *agenda.Service) {
	api := agendaApi{base: b, svc: svc}
	privileged := privilegedMiddleware(b.users)

	g := v1.Group("/events", authed...)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)

	cg := v1.Group("/agency-config", authed...)
	cg.GET("", api.agencyConfig)
	cg.PUT("", api.saveAgencyConfig, privileged)
}

func (api *agendaApi) event(ctx echo.Context) (agenda.Event, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return agenda.Event{}, err
	}
	e, err := api.svc.Get(ctx.Request().Context(), id)
	return e, errors.Wrap(err, "getting event")
}

// query lists the events between ?from and ?to (YYYY-MM-DD).
func (api *agendaApi) query(ctx echo.Context) error {
	var filter agenda.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to agenda.QueryFilter")
	}
	events, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []agenda.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *agendaApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data agenda.EventInput
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), data, &usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *agendaApi) retrieve(ctx echo.Context) error {
	e, err := api.event(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *agendaApi) update(ctx echo.Context) error {
	e, err := api.event(ctx)
	if err != nil {
		return err
	}
	var data agenda.EventInput
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	e, err = api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *agendaApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *agendaApi) agencyConfig(ctx echo.Context) error {
	ac, err := api.svc.AgencyConfig(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting agency config")
	}
	return ctx.JSON(http.StatusOK, ac)
}

func (api *agendaApi) saveAgencyConfig(ctx echo.Context) error {
	var data agenda.AgencyConfig
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	ac, err := api.svc.SaveAgencyConfig(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving agency config")
	}
	return ctx.JSON(http.StatusOK, ac)
}
