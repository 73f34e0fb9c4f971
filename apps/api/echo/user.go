package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

const passwordResetSuccess = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type userApi struct {
	base
	auth   authenticator
	logger core.Logger
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, b base, auth authenticator, logger core.Logger) {
	api := userApi{base: b, auth: auth, logger: logger}
	privileged := privilegedMiddleware(b.users)

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/register", api.create, privileged)
	ag.GET("", api.query, privileged)
	ag.DELETE("", api.destroyMultiple, privileged)
	ag.GET("/roles", api.queryRoles)
	ag.GET("/areas", api.queryAreas)
	ag.POST("/areas", api.createArea, privileged)
	ag.GET("/field-permissions/:role", api.fieldPermissions)
	ag.PUT("/field-permissions", api.setFieldPermission, privileged)

	mg := ag.Group("/me")
	mg.GET("", api.me)
	mg.GET("/permissions", api.myPermissions)
	mg.GET("/profile", api.myProfile)
	mg.PUT("/profile", api.updateMyProfile)

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrPrivilegedMiddleware(b.users))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, privileged)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.users); err != nil {
		return err
	}

	// only superusers create superusers
	ctxUsr, err := api.user(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if data.IsSuperuser && !ctxUsr.IsSuperuser {
		return errHttpForbidden
	}

	usr, err := api.users.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx, data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.auth.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.users.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetSuccess})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.users.Query(ctx.Request().Context(), filter, queryOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) myPermissions(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr.Permissions())
}

func (api *userApi) myProfile(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	prof, err := api.users.Profile(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *userApi) updateMyProfile(ctx echo.Context) error {
	usr, err := api.user(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateProfile
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	prof, err := api.users.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := api.user(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsPrivileged() && data.HasAdminFields() {
		return errHttpForbidden
	}

	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, usr, api.validate, api.users); err != nil {
		return err
	}

	usr, err = api.users.Update(rctx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := api.user(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID || (usr.IsSuperuser && !ctxUsr.IsSuperuser) {
		return errHttpForbidden
	}

	if err := api.users.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := api.user(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	for _, id := range query.IDs {
		if id == ctxUsr.ID {
			return errHttpForbidden
		}
	}

	if err := api.users.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) queryAreas(ctx echo.Context) error {
	areas, err := api.users.Areas(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing areas")
	}
	if areas == nil {
		areas = []user.Area{}
	}
	return ctx.JSON(http.StatusOK, areas)
}

func (api *userApi) createArea(ctx echo.Context) error {
	var data user.NewArea
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	area, err := api.users.CreateArea(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating area")
	}
	return ctx.JSON(http.StatusCreated, area)
}

func (api *userApi) fieldPermissions(ctx echo.Context) error {
	perms, err := api.users.FieldPermissions(ctx.Request().Context(), ctx.Param("role"))
	if err != nil {
		return errors.Wrap(err, "listing field permissions")
	}
	if perms == nil {
		perms = []user.FieldPermission{}
	}
	return ctx.JSON(http.StatusOK, perms)
}

func (api *userApi) setFieldPermission(ctx echo.Context) error {
	var data user.FieldPermission
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	fp, err := api.users.SetFieldPermission(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting field permission")
	}
	return ctx.JSON(http.StatusOK, fp)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// ctxUserOrPrivilegedMiddleware puts the :id user in the context as "object" when the caller is that
// user or a privileged one.
func ctxUserOrPrivilegedMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
			if err == nil && (id == ctxUsr.ID || ctxUsr.IsPrivileged()) {
				if usr, err := svc.GetByID(ctx.Request().Context(), id); err == nil {
					ctx.Set(objectKey, usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []int64 `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
