package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/user"
)

// allowUser returns a middleware that lets through the users for which allow returns true.
func allowUser(svc user.ServiceInterface, allow func(user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if allow(usr) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func privilegedMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return allowUser(svc, func(usr user.User) bool { return usr.IsPrivileged() })
}

func superuserMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return allowUser(svc, func(usr user.User) bool { return usr.IsSuperuser })
}

// activeMiddleware rejects tokens of deactivated accounts.
func activeMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}
