package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/agenda"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/chat"
	"github.com/janisrealty/janis/core/device"
	"github.com/janisrealty/janis/core/lead"
	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/notification"
	"github.com/janisrealty/janis/core/owner"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
	"github.com/janisrealty/janis/core/task"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/wordpress"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadSignature         = echo.NewHTTPError(http.StatusForbidden, "invalid signature")
)

// domainStatus maps the sentinel errors of the core packages to HTTP status codes.
var domainStatus = map[error]int{
	core.ErrForbidden: http.StatusForbidden,

	user.ErrNotFound:              http.StatusNotFound,
	user.ErrAreaNotFound:          http.StatusNotFound,
	device.ErrNotFound:            http.StatusNotFound,
	catalog.ErrNotFound:           http.StatusNotFound,
	catalog.ErrUnknownKind:        http.StatusNotFound,
	owner.ErrNotFound:             http.StatusNotFound,
	property.ErrNotFound:          http.StatusNotFound,
	property.ErrImageNotFound:     http.StatusNotFound,
	property.ErrVideoNotFound:     http.StatusNotFound,
	property.ErrDocumentNotFound:  http.StatusNotFound,
	property.ErrRoomNotFound:      http.StatusNotFound,
	requirement.ErrNotFound:       http.StatusNotFound,
	agenda.ErrNotFound:            http.StatusNotFound,
	task.ErrNotFound:              http.StatusNotFound,
	chat.ErrNotFound:              http.StatusNotFound,
	notification.ErrNotFound:      http.StatusNotFound,
	lead.ErrNotFound:              http.StatusNotFound,
	lead.ErrLinkNotFound:          http.StatusNotFound,
	lead.ErrMessageNotFound:       http.StatusNotFound,
	matching.ErrUnknownKey:        http.StatusNotFound,
	property.ErrCodeExists:        http.StatusBadRequest,
	lead.ErrNoProperty:            http.StatusBadRequest,
	core.ErrBlobNotFound:          http.StatusNotFound,
}

// sentinelStatus scans domainStatus: indexing panics on unhashable errors like validator.ValidationErrors.
func sentinelStatus(cause error) (int, bool) {
	for sentinel, status := range domainStatus {
		if cause == sentinel {
			return status, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called to gracefully stop the Server whenever core.IsShutdown reports a caught error.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if status, ok := sentinelStatus(cause); ok {
			code = status
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				code = http.StatusBadRequest
				if fields := origErr.FieldMap(); fields != nil {
					message = fields
				} else {
					message = origErr.Error()
				}
			case *wordpress.MissingFieldsError:
				code = http.StatusBadRequest
				message = echo.Map{
					"detail":         wordpress.MissingFieldsDetail,
					"message":        origErr.Error(),
					"missing_fields": origErr.Missing,
				}
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.UserID
					usr.Username = claims.Username
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) && signalShutdown != nil {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
