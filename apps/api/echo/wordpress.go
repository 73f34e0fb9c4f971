package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/wordpress"
)

const internalKeyHeader = "X-INTERNAL-KEY"

type wordPressApi struct {
	conf  *core.Config
	users user.ServiceInterface
	wp    WordPress
}

func registerWordPressAPI(g *echo.Group, conf *core.Config, users user.ServiceInterface, wp WordPress) {
	api := wordPressApi{conf: conf, users: users, wp: wp}
	g.Use(api.internalMiddleware)
	g.GET("/auth-test", api.authTest)
	g.POST("/sync", api.syncMany)
	g.POST("/sync/:id", api.syncOne)
	g.GET("/property/:id", api.remote)
	g.DELETE("/property/:id", api.deleteRemote)
}

// internalMiddleware lets through staff users and callers holding the internal key.
func (api *wordPressApi) internalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr := optionalContextUser(ctx, api.conf, api.users)
		if !wordpress.AllowInternal(usr, ctx.Request().Header.Get(internalKeyHeader), api.conf.InternalSyncKey) {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func (api *wordPressApi) authTest(ctx echo.Context) error {
	me, err := api.wp.TestAuth(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "testing wordpress auth")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "me": me})
}

type SyncManyRequest struct {
	OnlyActive *bool `json:"only_active" query:"only_active"`
	Limit      int   `json:"limit" query:"limit"`
}

func (api *wordPressApi) syncMany(ctx echo.Context) error {
	var data SyncManyRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	onlyActive := data.OnlyActive == nil || *data.OnlyActive
	res, err := api.wp.SyncMany(ctx.Request().Context(), onlyActive, data.Limit)
	if err != nil {
		return errors.Wrap(err, "syncing properties")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *wordPressApi) syncOne(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.wp.SyncOne(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "syncing property")
	}
	return ctx.JSON(http.StatusOK, res)
}

type RemoteResponse struct {
	Property property.Property `json:"property"`
	WP       wordpress.Object  `json:"wp"`
}

func (api *wordPressApi) remote(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	p, obj, err := api.wp.GetRemote(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting remote property")
	}
	return ctx.JSON(http.StatusOK, RemoteResponse{Property: p, WP: obj})
}

// deleteRemote removes the post. ?force=false trashes it instead and ?delete_media=true drops its media.
func (api *wordPressApi) deleteRemote(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	force := ctx.QueryParam("force") == "" || queryBool(ctx, "force")
	res, err := api.wp.DeleteOne(ctx.Request().Context(), id, force, queryBool(ctx, "delete_media"))
	if err != nil {
		return errors.Wrap(err, "deleting remote property")
	}
	return ctx.JSON(http.StatusOK, res)
}
