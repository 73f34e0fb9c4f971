package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/property"
)

// publicApi serves the anonymous listing endpoints used by the website.
type publicApi struct {
	svc *property.Service
}

func registerPublicAPI(g *echo.Group, svc *property.Service) {
	api := publicApi{svc: svc}
	g.GET("/properties", api.properties)
	g.POST("/properties/match", api.match)
}

func (api *publicApi) properties(ctx echo.Context) error {
	filter, ordering, err := bindPropertyQuery(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	props, err := api.svc.Public(rctx, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying public properties")
	}
	views, err := api.svc.Views(rctx, props)
	if err != nil {
		return errors.Wrap(err, "building property views")
	}
	if views == nil {
		views = []property.View{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *publicApi) match(ctx echo.Context) error {
	var kq property.KeywordQuery
	if err := ctx.Bind(&kq); err != nil {
		return err
	}
	matches, err := api.svc.MatchKeywords(ctx.Request().Context(), kq.Keywords, kq.UserIDs)
	if err != nil {
		return errors.Wrap(err, "matching keywords")
	}
	if matches == nil {
		matches = []property.KeywordMatch{}
	}
	return ctx.JSON(http.StatusOK, matches)
}
