/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	irc "github.com/btnmasher/debugircd"

	"github.com/sirupsen/logrus"
)

func main() {
	mainContext, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	logger := logrus.New()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: debugircd <port>")
		os.Exit(1)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil || port < 1 || port > 65535 {
		logger.Fatalf("invalid port: %q", os.Args[1])
	}

	shutdownTimeout := 30 * time.Second

	server, cfgErr := irc.NewServer(
		irc.WithListenAddr(fmt.Sprintf(":%d", port)),
		irc.WithChannel("#system", "System channel"),
		irc.WithChannel("#debug", "DEBUG"),
		irc.WithAutoJoin("#system"),
		irc.WithLogger(logger),
		irc.WithLogLevel(logrus.InfoLevel),
		irc.WithDefaultLogFormatter(),
		irc.WithGracefulShutdown(mainContext, shutdownTimeout),
	)
	if cfgErr != nil {
		logger.Fatal(cfgErr)
	}

	wg := conc.NewWaitGroup()
	defer wg.Wait()

	wg.Go(func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, irc.ErrServerClosed) {
			logger.Fatal(fmt.Errorf("failed to start server: %w", err))
		}
	})

	log := logger.WithField("component", "main")
	killSignals := make(chan os.Signal, 1)
	signal.Notify(killSignals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-killSignals
	log.Infof("initializing server shutdown, received signal: %s", sig)
	shutdown()
}
