package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

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
	inmemdb "github.com/janisrealty/janis/storage/database/inmem"
)

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:                   "Janis",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "secret",
		EncryptionKey:             "encryption-secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Twilio.WhatsAppFrom = "+14155238886"
	conf.Matching.CacheSize = 100
	return conf
}

// NewLogger returns a silent logger.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	return validate, translator
}

// SentMessage is a WhatsApp message recorded by FakeSender.
type SentMessage struct {
	To, Body, MediaURL string
}

type FakeSender struct {
	Sent []SentMessage
	Err  error
}

func (s *FakeSender) Send(_ context.Context, to, body, mediaURL string) (lead.SendResult, error) {
	if s.Err != nil {
		return lead.SendResult{}, s.Err
	}
	s.Sent = append(s.Sent, SentMessage{To: to, Body: body, MediaURL: mediaURL})
	return lead.SendResult{SID: "SM" + strconv.Itoa(len(s.Sent)), Status: "queued"}, nil
}

// Env wires every service on the in-memory database.
type Env struct {
	Conf   *core.Config
	Logger core.Logger
	DB     *inmemdb.DB
	Blobs  core.BlobStore
	Bus    core.EventBus
	Cache  core.Cache
	Mail   core.EmailService
	Sender *FakeSender

	UserRepo user.Repository

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
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	conf := NewConfig()
	conf.LocalMediaDir = t.TempDir()
	logger := NewLogger(conf)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	blobs := blobsvc.NewLocalStore(conf.LocalMediaDir, "http://localhost/media/")
	bus := eventbus.NewLocalBus()
	t.Cleanup(func() { _ = bus.Close() })

	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	env := &Env{
		Conf:     conf,
		Logger:   logger,
		DB:       db,
		Blobs:    blobs,
		Bus:      bus,
		Cache:    cachesvc.NewTTLCache(conf.Matching.CacheSize),
		Mail:     mail,
		Sender:   &FakeSender{},
		UserRepo: inmemdb.NewUserRepository(db),
	}
	env.Users = user.NewServiceMock(conf, env.UserRepo, mail, logger)
	env.Devices = device.NewService(inmemdb.NewDeviceRepository(db))
	env.Catalogs = catalog.NewService(inmemdb.NewCatalogRepository(db))
	env.Owners = owner.NewService(inmemdb.NewOwnerRepository(db), core.NewSealer(conf))
	env.Properties = property.NewService(inmemdb.NewPropertyRepository(db), blobs, env.Catalogs, env.Owners, env.Users)
	env.Requirements = requirement.NewService(inmemdb.NewRequirementRepository(db), bus, logger)
	env.Matching = matching.NewService(inmemdb.NewMatchingRepository(db), env.Properties, env.Requirements,
		env.Catalogs, env.Cache, bus, logger, nil)
	env.Notifications = notification.NewService(inmemdb.NewNotificationRepository(db), env.Properties, env.Users, mail, logger)
	env.Agenda = agenda.NewService(inmemdb.NewAgendaRepository(db))
	env.Tasks = task.NewService(inmemdb.NewTaskRepository(db))
	env.Chat = chat.NewService(inmemdb.NewChatRepository(db), blobs)
	env.Leads = lead.NewService(inmemdb.NewLeadRepository(db), env.Sender, env.Catalogs, env.Properties,
		lead.Defaults{}, logger, nil)
	return env
}

// CreateUser stores a user straight through the repository.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: firstName,
		Username:  uname,
		Email:     email,
		RoleCode:  role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateItem adds a catalog item.
func CreateItem(t *testing.T, svc *catalog.Service, kind catalog.Kind, name string, parentID ...int64) catalog.Item {
	t.Helper()
	ni := catalog.NewItem{Name: name}
	if len(parentID) > 0 {
		ni.ParentID = &parentID[0]
	}
	ni.Clean(kind)
	it, err := svc.Create(context.Background(), kind, ni)
	if err != nil {
		t.Fatalf("CreateItem() failed: %v", err)
	}
	return it
}
