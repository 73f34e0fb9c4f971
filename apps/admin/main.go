package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/owner"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
	"github.com/janisrealty/janis/core/user"
	blobsvc "github.com/janisrealty/janis/services/blob"
	cachesvc "github.com/janisrealty/janis/services/cache"
	emailsvc "github.com/janisrealty/janis/services/email"
	"github.com/janisrealty/janis/services/eventbus"
	logsvc "github.com/janisrealty/janis/services/logger"
	"github.com/janisrealty/janis/services/metrics"
	"github.com/janisrealty/janis/services/remax"
	"github.com/janisrealty/janis/services/transfer"
	"github.com/janisrealty/janis/services/wordpress"
	"github.com/janisrealty/janis/storage/database"
	sqlxrepos "github.com/janisrealty/janis/storage/database/sqlx"
)

const downloadTimeout = 30 * time.Second

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(logsvc.NewConsoleSink("ADMIN", conf.Debug), conf)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	blobs, err := newBlobStore(conf)
	errAndDie(err)
	bus := eventbus.NewLocalBus()
	defer func() { _ = bus.Close() }()

	// services
	usrRepo := sqlxrepos.NewUserRepository(db)
	users := user.NewService(conf, usrRepo, emailsvc.NewConsoleService(conf, logger), logger)
	catalogs := catalog.NewService(sqlxrepos.NewCatalogRepository(db))
	owners := owner.NewService(sqlxrepos.NewOwnerRepository(db), core.NewSealer(conf))
	properties := property.NewService(sqlxrepos.NewPropertyRepository(db), blobs, catalogs, owners, users)
	requirements := requirement.NewService(sqlxrepos.NewRequirementRepository(db), bus, logger)
	matchingSvc := matching.NewService(sqlxrepos.NewMatchingRepository(db), properties, requirements, catalogs,
		cachesvc.NewTTLCache(conf.Matching.CacheSize), bus, logger, nil)

	// start CLI
	cli := commandLine{
		db:          db.DB,
		out:         os.Stdout,
		logger:      logger,
		usrRepo:     usrRepo,
		properties:  properties,
		matching:    matchingSvc,
		remax:       remax.NewImporter(catalogs, properties, users, remax.NewHTTPDownloader(downloadTimeout), logger),
		transfer:    transfer.NewService(catalogs, properties, users, logger),
		localBlobs:  blobsvc.NewLocalStore(conf.LocalMediaDir, "/media/"),
		targetStore: func() (core.BlobStore, error) { return newAzureStore(conf) },
	}
	if conf.WordPress.BaseURL != "" {
		taxonomies, err := wordpress.LoadTaxonomies(conf.WordPress.TaxonomyFile)
		errAndDie(err)
		cli.wp = wordpress.NewService(wordpress.NewClient(conf), properties, catalogs, taxonomies, metrics.New(), logger)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	if conf.Azure.ConnectionString != "" {
		return newAzureStore(conf)
	}
	return blobsvc.NewLocalStore(conf.LocalMediaDir, "/media/"), nil
}

func newAzureStore(conf *core.Config) (core.BlobStore, error) {
	if conf.Azure.ConnectionString == "" {
		return nil, errors.New("azure storage is not configured")
	}
	return blobsvc.NewAzureStore(conf.Azure.ConnectionString, conf.Azure.Container)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
