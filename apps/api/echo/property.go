package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/lead"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

const objectKey = "object"

type propertyApi struct {
	base
	svc   *property.Service
	leads *lead.Service
}

func registerPropertyAPI(g *echo.Group, b base, svc *property.Service, leads *lead.Service) {
	api := propertyApi{base: b, svc: svc, leads: leads}
	privileged := privilegedMiddleware(b.users)

	g.GET("", api.query)
	g.GET("/mine", api.mine)
	g.POST("", api.create)

	dg := g.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/changes", api.changes, privileged)

	dg.GET("/images", api.images)
	dg.POST("/images", api.addImage)
	dg.POST("/images/:imageId/primary", api.setPrimaryImage)
	dg.DELETE("/images/:imageId", api.deleteImage)

	dg.GET("/videos", api.videos)
	dg.POST("/videos", api.addVideo)
	dg.DELETE("/videos/:videoId", api.deleteVideo)

	dg.GET("/documents", api.documents)
	dg.POST("/documents", api.addDocument)
	dg.POST("/documents/:documentId/approve", api.approveDocument, privileged)
	dg.DELETE("/documents/:documentId", api.deleteDocument)

	dg.GET("/rooms", api.rooms)
	dg.POST("/rooms", api.addRoom)
	dg.DELETE("/rooms/:roomId", api.deleteRoom)

	dg.GET("/financial-info", api.financialInfo)
	dg.PUT("/financial-info", api.saveFinancialInfo)

	dg.GET("/whatsapp-links", api.links)
	dg.POST("/whatsapp-links", api.createLink)
	dg.POST("/whatsapp-links/:linkId/deactivate", api.deactivateLink)
}

// objectMiddleware puts the :id listing in the context when the caller may see it.
func (api *propertyApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := api.user(ctx)
		if err != nil {
			return err
		}
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		p, err := api.svc.Get(ctx.Request().Context(), usr, id)
		if err != nil {
			return errors.Wrap(err, "getting property")
		}
		ctx.Set(objectKey, p)
		return next(ctx)
	}
}

func ctxProperty(ctx echo.Context) property.Property {
	p, _ := ctx.Get(objectKey).(property.Property)
	return p
}

func bindPropertyQuery(ctx echo.Context) (property.QueryFilter, []core.DBOrdering, error) {
	var filter property.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, nil, errors.Wrap(err, "binding to property.QueryFilter")
	}
	return filter, queryOrdering(ctx), nil
}

func (api *propertyApi) views(ctx echo.Context, props []property.Property) error {
	views, err := api.svc.Views(ctx.Request().Context(), props)
	if err != nil {
		return errors.Wrap(err, "building property views")
	}
	if views == nil {
		views = []property.View{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *propertyApi) query(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	filter, ordering, err := bindPropertyQuery(ctx)
	if err != nil {
		return err
	}
	props, err := api.svc.Query(ctx.Request().Context(), usr, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying properties")
	}
	return api.views(ctx, props)
}

func (api *propertyApi) mine(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	filter, ordering, err := bindPropertyQuery(ctx)
	if err != nil {
		return err
	}
	props, err := api.svc.Mine(ctx.Request().Context(), usr, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying my properties")
	}
	return api.views(ctx, props)
}

func (api *propertyApi) create(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data property.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Create(ctx.Request().Context(), &usr, data)
	if err != nil {
		return errors.Wrap(err, "creating property")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *propertyApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.View(ctx.Request().Context(), ctxProperty(ctx))
	if err != nil {
		return errors.Wrap(err, "building property view")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *propertyApi) update(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data property.Input
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	p, err := api.svc.Update(ctx.Request().Context(), usr, ctxProperty(ctx), data)
	if err != nil {
		return errors.Wrap(err, "updating property")
	}
	return ctx.JSON(http.StatusOK, p)
}

// canDelete lets privileged users delete any listing and the others only their own drafts.
func canDelete(usr user.User, p property.Property) bool {
	if usr.IsPrivileged() {
		return true
	}
	return p.IsDraft && p.ResponsibleID != nil && *p.ResponsibleID == usr.ID
}

func (api *propertyApi) destroy(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	p := ctxProperty(ctx)
	if !canDelete(usr, p) {
		return errHttpForbidden
	}
	if err := api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting property")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propertyApi) changes(ctx echo.Context) error {
	changes, err := api.svc.Changes(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing property changes")
	}
	if changes == nil {
		changes = []property.Change{}
	}
	return ctx.JSON(http.StatusOK, changes)
}

// WhatsApp links

func (api *propertyApi) links(ctx echo.Context) error {
	links, err := api.leads.Links(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing whatsapp links")
	}
	if links == nil {
		links = []lead.Link{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *propertyApi) createLink(ctx echo.Context) error {
	var data lead.LinkInput
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	lk, err := api.leads.CreateLink(ctx.Request().Context(), ctxProperty(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "creating whatsapp link")
	}
	return ctx.JSON(http.StatusCreated, lk)
}

func (api *propertyApi) deactivateLink(ctx echo.Context) error {
	id, err := pathID(ctx, "linkId")
	if err != nil {
		return err
	}
	lk, err := api.leads.DeactivateLink(ctx.Request().Context(), ctxProperty(ctx).ID, id)
	if err != nil {
		return errors.Wrap(err, "deactivating whatsapp link")
	}
	return ctx.JSON(http.StatusOK, lk)
}
