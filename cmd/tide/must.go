// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tidelock/tide/eventdb"
	"github.com/tidelock/tide/log"
	"github.com/tidelock/tide/lvldb"
	"github.com/tidelock/tide/metrics"
)

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	lvl := log.LevelFromVerbosity(ctx.Int(verbosityFlag.Name))
	if ctx.Bool(jsonLogsFlag.Name) {
		log.SetDefault(log.NewJSONHandler(lvl))
		return
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewTerminalHandler(os.Stderr, lvl, useColor))
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func openStore(ctx *cli.Context) *lvldb.LevelDB {
	if ctx.Bool(memFlag.Name) {
		db, err := lvldb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open store: %v", err))
		}
		return db
	}
	dir := filepath.Join(makeDataDir(ctx), "main.db")
	db, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		fatal(fmt.Sprintf("open store [%v]: %v", dir, err))
	}
	return db
}

func openEventDB(ctx *cli.Context) *eventdb.EventDB {
	if ctx.Bool(memFlag.Name) {
		db, err := eventdb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open event database: %v", err))
		}
		return db
	}
	dir := filepath.Join(makeDataDir(ctx), "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", dir, err))
	}
	return db
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes sync.WaitGroup
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}
}

func startMetricsServer(ctx *cli.Context) (string, func()) {
	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen metrics API addr [%v]: %v", addr, err))
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes sync.WaitGroup
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(ctx *cli.Context, apiURL string) {
	dataDir := "Memory"
	if !ctx.Bool(memFlag.Name) {
		dataDir = ctx.String(dataDirFlag.Name)
	}
	fmt.Printf(`Starting Tide %v
    Data dir   [ %v ]
    API portal [ %v ]
`,
		fullVersion(),
		dataDir,
		apiURL)
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.tidelock.tide")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.tidelock.tide")
		} else {
			return filepath.Join(home, ".org.tidelock.tide")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
