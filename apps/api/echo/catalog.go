package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/catalog"
)

type catalogApi struct {
	base
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, b base, svc *catalog.Service) {
	api := catalogApi{base: b, svc: svc}
	privileged := privilegedMiddleware(b.users)

	g.GET("/:kind", api.list)
	g.POST("/:kind", api.create, privileged)
	g.GET("/:kind/:id", api.retrieve)
	g.PUT("/:kind/:id", api.update, privileged)
	g.DELETE("/:kind/:id", api.destroy, privileged)
}

func kindParam(ctx echo.Context) (catalog.Kind, error) {
	kind := catalog.Kind(ctx.Param("kind"))
	if !kind.Valid() {
		return "", catalog.ErrUnknownKind
	}
	return kind, nil
}

func (api *catalogApi) list(ctx echo.Context) error {
	kind, err := kindParam(ctx)
	if err != nil {
		return err
	}
	var filter catalog.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to catalog.QueryFilter")
	}
	items, err := api.svc.List(ctx.Request().Context(), kind, filter)
	if err != nil {
		return errors.Wrap(err, "listing catalog")
	}
	if items == nil {
		items = []catalog.Item{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *catalogApi) create(ctx echo.Context) error {
	kind, err := kindParam(ctx)
	if err != nil {
		return err
	}
	var data catalog.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to catalog.NewItem")
	}
	if err := data.Validate(api.validate, kind); err != nil {
		return err
	}
	it, err := api.svc.Create(ctx.Request().Context(), kind, data)
	if err != nil {
		return errors.Wrap(err, "creating catalog item")
	}
	return ctx.JSON(http.StatusCreated, it)
}

func (api *catalogApi) object(ctx echo.Context) (catalog.Item, error) {
	kind, err := kindParam(ctx)
	if err != nil {
		return catalog.Item{}, err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return catalog.Item{}, err
	}
	return api.svc.Get(ctx.Request().Context(), kind, id)
}

func (api *catalogApi) retrieve(ctx echo.Context) error {
	it, err := api.object(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *catalogApi) update(ctx echo.Context) error {
	it, err := api.object(ctx)
	if err != nil {
		return err
	}
	var data catalog.UpdateItem
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	it, err = api.svc.Update(ctx.Request().Context(), it, data)
	if err != nil {
		return errors.Wrap(err, "updating catalog item")
	}
	return ctx.JSON(http.StatusOK, it)
}

func (api *catalogApi) destroy(ctx echo.Context) error {
	it, err := api.object(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), it.Kind, it.ID); err != nil {
		return errors.Wrap(err, "deleting catalog item")
	}
	return ctx.NoContent(http.StatusNoContent)
}
