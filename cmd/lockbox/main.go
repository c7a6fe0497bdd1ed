// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakelock/lockbox/api"
	"github.com/stakelock/lockbox/eventdb"
	"github.com/stakelock/lockbox/genesis"
	"github.com/stakelock/lockbox/health"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
	"github.com/stakelock/lockbox/lvldb"
	"github.com/stakelock/lockbox/metrics"
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
		Name:      "Lockbox",
		Usage:     "Node of the Lockbox staking ledger",
		Copyright: "2025 The Lockbox developers",
		Flags: []cli.Flag{
			networkFlag,
			dataDirFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			verifyIndexFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "Lockbox client for test & dev",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					persistFlag,
					verbosityFlag,
					jsonLogsFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
				},
				Action: soloAction,
			},
			{
				Name:  "index",
				Usage: "rebuild and verify the event index from the ledger journal",
				Flags: []cli.Flag{
					networkFlag,
					dataDirFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: indexAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	genesisID := commitGenesis(mainDB, gene)

	ldgr, err := ledger.New(mainDB, nil)
	if err != nil {
		fatal("initialize ledger:", err)
	}
	defer func() { logger.Info("closing ledger..."); ldgr.Close() }()

	eventDB := openEventDB(instanceDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	if err := syncEventDB(exitSignal, ldgr, eventDB, ctx.Bool(verifyIndexFlag.Name)); err != nil {
		fatal("sync event database:", err)
	}

	return runNode(ctx, exitSignal, logLevel, gene, genesisID, instanceDir, ldgr, eventDB)
}

func soloAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	gene := genesis.NewDevnet()

	var (
		mainDB      *lvldb.LevelDB
		eventDB     *eventdb.EventDB
		instanceDir string
	)
	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, gene)
		mainDB = openMainDB(ctx, instanceDir)
		eventDB = openEventDB(instanceDir)
	} else {
		instanceDir = "Memory"
		mainDB = openMemMainDB()
		eventDB = openMemEventDB()
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	genesisID := commitGenesis(mainDB, gene)

	ldgr, err := ledger.New(mainDB, nil)
	if err != nil {
		fatal("initialize ledger:", err)
	}
	defer func() { logger.Info("closing ledger..."); ldgr.Close() }()

	if err := syncEventDB(exitSignal, ldgr, eventDB, false); err != nil {
		fatal("sync event database:", err)
	}

	printSoloStartupMessage(gene, instanceDir)

	return runNode(ctx, exitSignal, logLevel, gene, genesisID, instanceDir, ldgr, eventDB)
}

func indexAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB := openMainDB(ctx, instanceDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	commitGenesis(mainDB, gene)

	ldgr, err := ledger.New(mainDB, nil)
	if err != nil {
		fatal("initialize ledger:", err)
	}
	defer ldgr.Close()

	eventDB := openEventDB(instanceDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	return syncEventDB(exitSignal, ldgr, eventDB, true)
}

// runNode starts listeners and background loops, then blocks until the
// exit signal fires.
func runNode(
	ctx *cli.Context,
	exitSignal context.Context,
	logLevel *slog.LevelVar,
	gene *genesis.Genesis,
	genesisID lockbox.Bytes32,
	instanceDir string,
	ldgr *ledger.Ledger,
	eventDB *eventdb.EventDB,
) error {
	hlth := &health.Health{}
	hlth.JournalCommit(ldgr.Head())
	hlth.IndexedHead(ldgr.Head())

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		logger.Info("metrics server started", "url", url)
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		adminAddr, err := ldgr.Admin()
		if err != nil {
			fatal("read admin address:", err)
		}
		adminServer := api.NewAdmin(ctx.String(adminAddrFlag.Name), ldgr, adminAddr, hlth, logLevel, apiLogs)
		url, closeFunc, err := adminServer.Start()
		if err != nil {
			fatal("start admin server:", err)
		}
		logger.Info("admin server started", "url", url)
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
	}

	apiHandler, apiCloser := api.New(ldgr, eventDB, genesisID, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		EventsLimit:    ctx.Uint64(apiEventsLimitFlag.Name),
		PprofOn:        ctx.Bool(pprofFlag.Name),
		LogRequests:    apiLogs,
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	})
	defer func() { logger.Info("stopping API..."); apiCloser() }()

	apiURL, srvCloser := startAPIServer(ctx, apiHandler)
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	printStartupMessage(gene, genesisID, instanceDir, apiURL)

	return runLoops(exitSignal, ldgr, eventDB, hlth)
}
