package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	dig_container "github.com/janisrealty/janis/apps/api/di/dig"
	echoapi "github.com/janisrealty/janis/apps/api/echo"
	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/notification"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/scheduler"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		bus core.EventBus,
		matchingSvc *matching.Service,
		notificationSvc *notification.Service,
		sched *scheduler.Scheduler,
		shutdown dig_container.ShutdownSignal,
		server echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.ParseEmailTemplates(conf, apiLogger)
		user.LoadCommonPasswords(conf, apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Wire Events

		if err := matchingSvc.Listen(); err != nil {
			apiLogger.Fatal(fmt.Sprintf("subscribing matching: %v", err), err)
		}
		if err := notificationSvc.Listen(bus); err != nil {
			apiLogger.Fatal(fmt.Sprintf("subscribing notifications: %v", err), err)
		}
		defer func() {
			if err := bus.Close(); err != nil {
				apiLogger.Error("closing event bus", err)
			}
		}()

		sched.Start()

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		serverErrors := make(chan error, 1)
		go func() {
			apiLogger.Info("API listening on " + conf.Server.Host)
			serverErrors <- server.Start()
		}()

		// =========================================================================
		// Shutdown

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if err != nil && err != http.ErrServerClosed {
				apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)
			}

		case sig := <-signals:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		case <-shutdown:
			apiLogger.Info("integrity issue: Start shutdown...")
		}

		// give outstanding requests and jobs a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := sched.Stop(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop scheduler: %v", err), err)
		}
		if err := server.Stop(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}))
}
