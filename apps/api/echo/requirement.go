package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
)

type requirementApi struct {
	base
	svc      *requirement.Service
	matching *matching.Service
	props    *property.Service
}

func registerRequirementAPI(g *echo.Group, b base, svc *requirement.Service, ms *matching.Service, props *property.Service) {
	api := requirementApi{base: b, svc: svc, matching: ms, props: props}

	g.GET("", api.query)
	g.POST("", api.create)

	dg := g.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, privilegedMiddleware(b.users))
	dg.PUT("/links", api.setLinks)
	dg.GET("/matches", api.matches)
	dg.POST("/matches/recompute", api.recompute)
	dg.POST("/matches/:propertyId/positive", api.positive)
}

func (api *requirementApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		r, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting requirement")
		}
		ctx.Set(objectKey, r)
		return next(ctx)
	}
}

func ctxRequirement(ctx echo.Context) requirement.Requirement {
	r, _ := ctx.Get(objectKey).(requirement.Requirement)
	return r
}

func (api *requirementApi) query(ctx echo.Context) error {
	var filter requirement.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to requirement.QueryFilter")
	}
	reqs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying requirements")
	}
	if reqs == nil {
		reqs = []requirement.Requirement{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *requirementApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data requirement.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	r, err := api.svc.Create(ctx.Request().Context(), data, &usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating requirement")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *requirementApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctxRequirement(ctx))
}

func (api *requirementApi) update(ctx echo.Context) error {
	var data requirement.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	r, err := api.svc.Update(ctx.Request().Context(), ctxRequirement(ctx), data)
	if err != nil {
		return errors.Wrap(err, "updating requirement")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *requirementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctxRequirement(ctx).ID); err != nil {
		return errors.Wrap(err, "deleting requirement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *requirementApi) setLinks(ctx echo.Context) error {
	var data requirement.Links
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	r, err := api.svc.SetLinks(ctx.Request().Context(), ctxRequirement(ctx), data)
	if err != nil {
		return errors.Wrap(err, "setting requirement links")
	}
	return ctx.JSON(http.StatusOK, r)
}

// matches serves the cached matches. ?stored=true returns the persisted ones and ?limit=N scores afresh.
func (api *requirementApi) matches(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	r := ctxRequirement(ctx)

	if queryBool(ctx, "stored") {
		stored, err := api.matching.StoredMatches(rctx, r.ID)
		if err != nil {
			return errors.Wrap(err, "listing stored matches")
		}
		if stored == nil {
			stored = []matching.Match{}
		}
		return ctx.JSON(http.StatusOK, stored)
	}

	var results []matching.Result
	var err error
	if limit := queryInt(ctx, "limit", 0); limit > 0 {
		results, err = api.matching.GetMatches(rctx, r, limit)
	} else {
		results, err = api.matching.CachedMatches(rctx, r)
	}
	if err != nil {
		return errors.Wrap(err, "getting matches")
	}
	if results == nil {
		results = []matching.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *requirementApi) recompute(ctx echo.Context) error {
	results, err := api.matching.Recompute(ctx.Request().Context(), ctxRequirement(ctx), false)
	if err != nil {
		return errors.Wrap(err, "recomputing matches")
	}
	if results == nil {
		results = []matching.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

// PositiveMatchRequest carries free-form metadata about the outcome (visit, offer...).
type PositiveMatchRequest struct {
	Metadata map[string]interface{} `json:"metadata"`
}

func (api *requirementApi) positive(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	pid, err := pathID(ctx, "propertyId")
	if err != nil {
		return err
	}
	var data PositiveMatchRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&data); err != nil {
			return err
		}
	}

	rctx := ctx.Request().Context()
	p, err := api.props.Get(rctx, usr, pid)
	if err != nil {
		return errors.Wrap(err, "getting property")
	}
	ev, err := api.matching.RecordPositiveMatch(rctx, ctxRequirement(ctx), p, data.Metadata)
	if err != nil {
		return errors.Wrap(err, "recording positive match")
	}
	return ctx.JSON(http.StatusCreated, ev)
}
