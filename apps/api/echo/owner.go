package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/owner"
)

type ownerApi struct {
	base
	svc *owner.Service
}

func registerOwnerAPI(g *echo.Group, b base, svc *owner.Service) {
	api := ownerApi{base: b, svc: svc}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy, privilegedMiddleware(b.users))
}

func (api *ownerApi) query(ctx echo.Context) error {
	var filter owner.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to owner.QueryFilter")
	}
	owners, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying owners")
	}
	if owners == nil {
		owners = []owner.Owner{}
	}
	return ctx.JSON(http.StatusOK, owners)
}

func (api *ownerApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data owner.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	o, err := api.svc.Create(ctx.Request().Context(), data, &usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating owner")
	}
	return ctx.JSON(http.StatusCreated, o)
}

func (api *ownerApi) object(ctx echo.Context) (owner.Owner, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return owner.Owner{}, err
	}
	return api.svc.Get(ctx.Request().Context(), id)
}

func (api *ownerApi) retrieve(ctx echo.Context) error {
	o, err := api.object(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *ownerApi) update(ctx echo.Context) error {
	o, err := api.object(ctx)
	if err != nil {
		return err
	}
	var data owner.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	o, err = api.svc.Update(ctx.Request().Context(), o, data)
	if err != nil {
		return errors.Wrap(err, "updating owner")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *ownerApi) destroy(ctx echo.Context) error {
	o, err := api.object(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), o.ID); err != nil {
		return errors.Wrap(err, "deleting owner")
	}
	return ctx.NoContent(http.StatusNoContent)
}
