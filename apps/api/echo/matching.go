package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/matching"
)

type matchingApi struct {
	base
	svc *matching.Service
}

func registerMatchingAPI(g *echo.Group, b base, svc *matching.Service) {
	api := matchingApi{base: b, svc: svc}
	g.GET("/alerts", api.alerts)
	g.GET("/weights", api.weights)
	g.PUT("/weights/:key", api.setWeight, privilegedMiddleware(b.users))
}

// alerts pops the pending new-match alerts of the current user.
func (api *matchingApi) alerts(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Alerts(usr.ID))
}

func (api *matchingApi) weights(ctx echo.Context) error {
	w, err := api.svc.Weights(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting weights")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *matchingApi) setWeight(ctx echo.Context) error {
	var data matching.Weight
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	data.Key = ctx.Param("key")
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	w, err := api.svc.SetWeight(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting weight")
	}
	return ctx.JSON(http.StatusOK, w)
}
