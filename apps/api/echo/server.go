package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
	"github.com/janisrealty/janis/services/metrics"
	"github.com/janisrealty/janis/services/wordpress"
)

type (
	// WordPress is the part of the WordPress service exposed on the internal API.
	WordPress interface {
		TestAuth(ctx context.Context) (wordpress.Object, error)
		SyncOne(ctx context.Context, id int64) (wordpress.SyncResult, error)
		SyncMany(ctx context.Context, onlyActive bool, limit int) (wordpress.SyncManyResult, error)
		GetRemote(ctx context.Context, id int64) (property.Property, wordpress.Object, error)
		DeleteOne(ctx context.Context, id int64, force, deleteMedia bool) (wordpress.DeleteResult, error)
	}

	// SignatureChecker validates the signature of Twilio webhooks.
	SignatureChecker interface {
		Valid(url string, params map[string]string, signature string) bool
	}

	Options struct {
		Address        string
		DisableReqLogs bool
		MediaDir       string // served under /media when blobs live on disk
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Metrics        *metrics.Metrics
		SignalShutdown func()

		UserSvc         user.ServiceInterface
		DeviceSvc       *device.Service
		CatalogSvc      *catalog.Service
		OwnerSvc        *owner.Service
		PropertySvc     *property.Service
		RequirementSvc  *requirement.Service
		MatchingSvc     *matching.Service
		NotificationSvc *notification.Service
		AgendaSvc       *agenda.Service
		TaskSvc         *task.Service
		ChatSvc         *chat.Service
		LeadSvc         *lead.Service
		WordPress       WordPress
		Signatures      SignatureChecker
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.opts.Metrics != nil {
		s.app.Use(s.opts.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	if s.opts.MediaDir != "" {
		s.app.Static("/media", s.opts.MediaDir)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))
	authed := []echo.MiddlewareFunc{jwt, activeMiddleware(s.opts.UserSvc)}

	b := base{validate: s.opts.Validate, users: s.opts.UserSvc}
	auth := authenticator{conf: conf, users: s.opts.UserSvc}

	registerUserAPI(v1, jwt, b, auth, s.opts.Logger)
	registerDeviceAPI(v1.Group("/devices", authed...), b, s.opts.DeviceSvc)
	registerCatalogAPI(v1.Group("/catalogs", authed...), b, s.opts.CatalogSvc)
	registerOwnerAPI(v1.Group("/owners", authed...), b, s.opts.OwnerSvc)
	registerPropertyAPI(v1.Group("/properties", authed...), b, s.opts.PropertySvc, s.opts.LeadSvc)
	registerPublicAPI(v1.Group("/public"), s.opts.PropertySvc)
	registerRequirementAPI(v1.Group("/requirements", authed...), b, s.opts.RequirementSvc, s.opts.MatchingSvc, s.opts.PropertySvc)
	registerMatchingAPI(v1.Group("/matching", authed...), b, s.opts.MatchingSvc)
	registerAgendaAPI(v1, authed, b, s.opts.AgendaSvc)
	registerTaskAPI(v1.Group("/tasks", authed...), b, s.opts.TaskSvc)
	registerChatAPI(v1.Group("/chat", authed...), b, s.opts.ChatSvc)
	registerNotificationAPI(v1.Group("/notifications", authed...), b, s.opts.NotificationSvc)
	registerLeadAPI(v1.Group("/leads", authed...), b, s.opts.LeadSvc)
	registerWebhookAPI(v1.Group("/webhooks"), s.opts.LeadSvc, s.opts.Signatures, s.opts.Logger)
	if s.opts.WordPress != nil {
		registerWordPressAPI(v1.Group("/internal/wp"), conf, s.opts.UserSvc, s.opts.WordPress)
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Janis API!")
}

// base holds what every handler group needs.
type base struct {
	validate *validator.Validate
	users    user.ServiceInterface
}

func (b base) user(ctx echo.Context) (user.User, error) {
	return getContextUser(ctx, b.users)
}

// bindValid binds the request into v and runs its Validate method.
func bindValid(ctx echo.Context, v interface{ Validate(*validator.Validate) error }, validate *validator.Validate) error {
	if err := ctx.Bind(v); err != nil {
		return err
	}
	return v.Validate(validate)
}
