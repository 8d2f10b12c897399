package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/session"
	logsvc "github.com/masomo/dashboard/services/logger"
	"github.com/masomo/dashboard/services/restclient"
	"github.com/masomo/dashboard/services/tokenstore"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var logOut io.Writer = io.Discard
	if conf.Debug {
		logOut = os.Stderr
	}
	logger := logsvc.NewRollbarLogger(log.New(logOut, "PORTAL : ", log.LstdFlags|log.Lmicroseconds), conf)

	store, err := tokenstore.Open(conf)
	if err != nil {
		logger.Fatal("opening token store", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := restclient.New(conf.Client.BaseURL, conf.Client.Timeout)
	validate, translator := core.NewValidator()
	mgr := session.NewManager(session.Options{
		Store:      store,
		Backend:    client,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	mgr.Start(ctx)

	cli := commandLine{mgr: mgr, client: client, out: os.Stdout}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp && err != errDenied {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}
