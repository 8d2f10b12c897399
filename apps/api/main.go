package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/masomo/dashboard/apps/api/echo"
	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	logsvc "github.com/masomo/dashboard/services/logger"
	"github.com/masomo/dashboard/storage/database"
	inmemdb "github.com/masomo/dashboard/storage/database/inmem"
	sqlxrepos "github.com/masomo/dashboard/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	repo, closeDB, err := setUpRepository(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer closeDB()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	if conf.Server.DebugHost != "" {
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:        conf,
		Logger:      logger,
		IdentitySvc: identity.NewService(repo),
		Validate:    validate,
		Translator:  translator,
		SignalShutdown: func() {
			shutdown <- syscall.SIGTERM
		},
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

// setUpRepository returns the seeded in-memory store or a migrated Postgres one.
func setUpRepository(conf *core.Config) (identity.Repository, func(), error) {
	if conf.Database.InMemory {
		repo := inmemdb.NewUserRepository(inmemdb.Open())
		if err := inmemdb.Seed(context.Background(), repo); err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}

	if conf.Database.AdminUser != "" {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewUserRepository(db), func() { _ = db.Close() }, nil
}
