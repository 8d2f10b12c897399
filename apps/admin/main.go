package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
	logsvc "github.com/masomo/dashboard/services/logger"
	"github.com/masomo/dashboard/storage/database"
	inmemdb "github.com/masomo/dashboard/storage/database/inmem"
	sqlxrepos "github.com/masomo/dashboard/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	var db *sqlx.DB
	var repo identity.Repository
	if conf.Database.InMemory {
		logger.Warn("database.inMemory is set: changes are lost when this command exits")
		repo = inmemdb.NewUserRepository(inmemdb.Open())
	} else {
		if conf.Database.AdminUser != "" {
			if err = database.CreateIfNotExist(conf); err != nil {
				logger.Fatal("creating database", err)
			}
		}
		if db, err = database.Open(conf); err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()
		repo = sqlxrepos.NewUserRepository(db)
	}

	// start CLI
	validate, translator := core.NewValidator()
	cli := commandLine{
		db:         db,
		svc:        identity.NewService(repo),
		validate:   validate,
		translator: translator,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		if db != nil {
			_ = db.Close()
		}
		os.Exit(1)
	}
}
