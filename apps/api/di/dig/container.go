package dig_container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/janisrealty/janis/apps/api/echo"
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
	blobsvc "github.com/janisrealty/janis/services/blob"
	cachesvc "github.com/janisrealty/janis/services/cache"
	emailsvc "github.com/janisrealty/janis/services/email"
	"github.com/janisrealty/janis/services/eventbus"
	logsvc "github.com/janisrealty/janis/services/logger"
	"github.com/janisrealty/janis/services/metrics"
	"github.com/janisrealty/janis/services/scheduler"
	"github.com/janisrealty/janis/services/whatsapp"
	"github.com/janisrealty/janis/services/wordpress"
	"github.com/janisrealty/janis/storage/database"
	sqlxrepos "github.com/janisrealty/janis/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	serverParams struct {
		dig.In

		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		Metrics       *metrics.Metrics
		Users         user.ServiceInterface
		Devices       *device.Service
		Catalogs      *catalog.Service
		Owners        *owner.Service
		Properties    *property.Service
		Requirements  *requirement.Service
		Matching      *matching.Service
		Notifications *notification.Service
		Agenda        *agenda.Service
		Tasks         *task.Service
		Chat          *chat.Service
		Leads         *lead.Service
		WordPress     *wordpress.Service // nil when no site is configured
		Signatures    *whatsapp.SignatureValidator
		Shutdown      ShutdownSignal
	}
)

const jobTimeout = 30 * time.Minute

// ShutdownSignal lets the HTTP error handler ask main for a graceful shutdown.
type ShutdownSignal chan struct{}

func newShutdownSignal() ShutdownSignal {
	return make(ShutdownSignal, 1)
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewConsoleSink("API", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewConsoleSink("DB", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// NewBlobStore picks Azure when a connection string is set and the local media dir otherwise.
func NewBlobStore(conf *core.Config) (core.BlobStore, error) {
	if conf.Azure.ConnectionString != "" {
		return blobsvc.NewAzureStore(conf.Azure.ConnectionString, conf.Azure.Container)
	}
	return blobsvc.NewLocalStore(conf.LocalMediaDir, "/media/"), nil
}

func newEventBus(conf *core.Config, logger core.Logger) (core.EventBus, error) {
	if conf.NATS.URL == "" {
		return eventbus.NewLocalBus(), nil
	}
	return eventbus.NewNATSBus(conf.NATS.URL, conf.AppName+"-api", logger)
}

func newCache(conf *core.Config) core.Cache {
	return cachesvc.NewTTLCache(conf.Matching.CacheSize)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	return validate
}

func newPropertyService(repo property.Repository, blobs core.BlobStore, catalogs *catalog.Service, owners *owner.Service, users user.ServiceInterface) *property.Service {
	return property.NewService(repo, blobs, catalogs, owners, users)
}

func newMatchingService(
	repo matching.Repository,
	properties *property.Service,
	requirements *requirement.Service,
	catalogs *catalog.Service,
	cache core.Cache,
	bus core.EventBus,
	logger core.Logger,
	m *metrics.Metrics,
) *matching.Service {
	return matching.NewService(repo, properties, requirements, catalogs, cache, bus, logger, m.MatchesComputed)
}

func newNotificationService(repo notification.Repository, properties *property.Service, users user.ServiceInterface, mailSvc core.EmailService, logger core.Logger) *notification.Service {
	return notification.NewService(repo, properties, users, mailSvc, logger)
}

func newLeadService(
	conf *core.Config,
	repo lead.Repository,
	catalogs *catalog.Service,
	properties *property.Service,
	logger core.Logger,
	m *metrics.Metrics,
) *lead.Service {
	defaults := lead.Defaults{
		PropertyID:      conf.Twilio.DefaultPropertyID,
		SocialNetworkID: conf.Twilio.DefaultSocialNetworkID,
	}
	return lead.NewService(repo, whatsapp.NewTwilioSender(conf), catalogs, properties, defaults, logger, m.WhatsAppCounter())
}

// newWordPressService returns nil when no site is configured.
func newWordPressService(conf *core.Config, properties *property.Service, catalogs *catalog.Service, m *metrics.Metrics, logger core.Logger) (*wordpress.Service, error) {
	if conf.WordPress.BaseURL == "" {
		return nil, nil
	}
	taxonomies, err := wordpress.LoadTaxonomies(conf.WordPress.TaxonomyFile)
	if err != nil {
		return nil, err
	}
	return wordpress.NewService(wordpress.NewClient(conf), properties, catalogs, taxonomies, m, logger), nil
}

// NewScheduler registers the periodic match recompute and, when enabled, the WordPress sync.
func NewScheduler(conf *core.Config, logger core.Logger, matchingSvc *matching.Service, wp *wordpress.Service) (*scheduler.Scheduler, error) {
	s := scheduler.New(logger, jobTimeout)
	err := s.Add("recompute-matches", conf.Matching.RecomputeSchedule, func(ctx context.Context) error {
		_, err := matchingSvc.RecomputeAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if wp != nil {
		err = s.Add("wp-sync", conf.Matching.WPSyncSchedule, func(ctx context.Context) error {
			_, err := wp.SyncMany(ctx, true, 0)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newServer(p serverParams) echoapi.Server {
	opts := &echoapi.Options{
		Address:         p.Conf.Server.Host,
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		Metrics:         p.Metrics,
		UserSvc:         p.Users,
		DeviceSvc:       p.Devices,
		CatalogSvc:      p.Catalogs,
		OwnerSvc:        p.Owners,
		PropertySvc:     p.Properties,
		RequirementSvc:  p.Requirements,
		MatchingSvc:     p.Matching,
		NotificationSvc: p.Notifications,
		AgendaSvc:       p.Agenda,
		TaskSvc:         p.Tasks,
		ChatSvc:         p.Chat,
		LeadSvc:         p.Leads,
		Signatures:      p.Signatures,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- struct{}{}:
			default:
			}
		},
	}
	if p.Conf.Azure.ConnectionString == "" {
		opts.MediaDir = p.Conf.LocalMediaDir
	}
	if p.WordPress != nil {
		opts.WordPress = p.WordPress
	}
	return echoapi.NewServer(opts)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(NewBlobStore))
	must(c.Provide(newEventBus))
	must(c.Provide(newCache))
	must(c.Provide(core.NewSealer))
	must(c.Provide(metrics.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newShutdownSignal))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewDeviceRepository, dig.As(new(device.Repository))))
	must(c.Provide(sqlxrepos.NewCatalogRepository, dig.As(new(catalog.Repository))))
	must(c.Provide(sqlxrepos.NewOwnerRepository, dig.As(new(owner.Repository))))
	must(c.Provide(sqlxrepos.NewPropertyRepository, dig.As(new(property.Repository))))
	must(c.Provide(sqlxrepos.NewRequirementRepository, dig.As(new(requirement.Repository))))
	must(c.Provide(sqlxrepos.NewMatchingRepository, dig.As(new(matching.Repository))))
	must(c.Provide(sqlxrepos.NewNotificationRepository, dig.As(new(notification.Repository))))
	must(c.Provide(sqlxrepos.NewAgendaRepository, dig.As(new(agenda.Repository))))
	must(c.Provide(sqlxrepos.NewTaskRepository, dig.As(new(task.Repository))))
	must(c.Provide(sqlxrepos.NewChatRepository, dig.As(new(chat.Repository))))
	must(c.Provide(sqlxrepos.NewLeadRepository, dig.As(new(lead.Repository))))

	// domain services
	must(c.Provide(user.NewService))
	must(c.Provide(device.NewService))
	must(c.Provide(catalog.NewService))
	must(c.Provide(owner.NewService))
	must(c.Provide(newPropertyService))
	must(c.Provide(requirement.NewService))
	must(c.Provide(newMatchingService))
	must(c.Provide(newNotificationService))
	must(c.Provide(agenda.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(chat.NewService))
	must(c.Provide(newLeadService))

	// integrations
	must(c.Provide(whatsapp.NewSignatureValidator))
	must(c.Provide(newWordPressService))
	must(c.Provide(NewScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
