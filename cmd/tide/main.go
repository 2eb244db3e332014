// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/tidelock/tide/api"
	"github.com/tidelock/tide/ledger"
	"github.com/tidelock/tide/log"
	"github.com/tidelock/tide/metrics"
	"github.com/tidelock/tide/vault"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Tide",
		Usage:     "Time-locked token staking ledger",
		Copyright: "2025 The Tidelock developers",
		Flags: []cli.Flag{
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	store := openStore(ctx)
	defer func() { logger.Info("closing store..."); store.Close() }()

	eventDB := openEventDB(ctx)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc := startMetricsServer(ctx)
		logger.Info("metrics server started", "url", url)
		defer closeFunc()
	}

	ldgr := ledger.New(store, vault.New(store), eventDB)

	apiHandler := api.New(ldgr, eventDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	apiURL, closeAPI := startAPIServer(ctx, apiHandler)
	defer func() { logger.Info("stopping API server..."); closeAPI() }()

	printStartupMessage(ctx, apiURL)

	<-handleExitSignal().Done()
	return nil
}
