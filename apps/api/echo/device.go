package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/device"
)

type deviceApi struct {
	base
	svc *device.Service
}

type (
	DeviceList struct {
		Results []device.Device `json:"results"`
		Counts  device.Counts   `json:"counts"`
	}

	DeviceStatusRequest struct {
		Status device.Status `json:"status"`
	}
)

func registerDeviceAPI(g *echo.Group, b base, svc *device.Service) {
	api := deviceApi{base: b, svc: svc}
	superuser := superuserMiddleware(b.users)

	g.POST("", api.touch)
	g.GET("", api.list, superuser)
	g.POST("/:id/status", api.setStatus, superuser)
}

func (api *deviceApi) touch(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var meta device.Meta
	if err := ctx.Bind(&meta); err != nil {
		return errors.Wrap(err, "binding to device.Meta")
	}
	meta.Clean()
	if err := api.validate.Struct(meta); err != nil {
		return err
	}
	meta.UserAgent = ctx.Request().UserAgent()
	meta.IP = ctx.RealIP()

	dev, err := api.svc.Touch(ctx.Request().Context(), usr.ID, meta)
	if err != nil {
		return errors.Wrap(err, "touching device")
	}
	return ctx.JSON(http.StatusOK, dev)
}

func (api *deviceApi) list(ctx echo.Context) error {
	var filter device.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to device.QueryFilter")
	}
	rctx := ctx.Request().Context()
	devs, err := api.svc.List(rctx, filter)
	if err != nil {
		return errors.Wrap(err, "listing devices")
	}
	counts, err := api.svc.Counts(rctx)
	if err != nil {
		return errors.Wrap(err, "counting devices")
	}
	if devs == nil {
		devs = []device.Device{}
	}
	return ctx.JSON(http.StatusOK, DeviceList{Results: devs, Counts: counts})
}

func (api *deviceApi) setStatus(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data DeviceStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeviceStatusRequest")
	}
	dev, err := api.svc.SetStatus(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting device status")
	}
	return ctx.JSON(http.StatusOK, dev)
}
