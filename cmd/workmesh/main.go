// Copyright (c) 2026 The WorkMesh developers
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
	"syscall"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/workmesh/workmesh/api"
	"github.com/workmesh/workmesh/events"
	"github.com/workmesh/workmesh/kv"
	"github.com/workmesh/workmesh/log"
	"github.com/workmesh/workmesh/lvldb"
	"github.com/workmesh/workmesh/metrics"
	"github.com/workmesh/workmesh/runtime"
)

var (
	version   string
	gitCommit string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "WorkMesh",
		Usage:     "Job marketplace node",
		Copyright: "2026 The WorkMesh developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			enableAPILogsFlag,
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

	genePath := ctx.String(genesisFlag.Name)
	if genePath == "" {
		fatal("--genesis is required")
	}
	gene, err := LoadGenesis(genePath)
	if err != nil {
		fatal(err)
	}

	var db kv.GetPutCloser
	if dataDir := ctx.String(dataDirFlag.Name); dataDir != "" {
		if db, err = lvldb.New(dataDir, lvldb.Options{}); err != nil {
			fatal("open database:", err)
		}
		logger.Info("database opened", "dir", dataDir)
	} else {
		if db, err = lvldb.NewMem(); err != nil {
			fatal("open database:", err)
		}
		logger.Warn("using in-memory database, state will not survive restarts")
	}
	defer func() {
		logger.Info("closing database...")
		if err := db.Close(); err != nil {
			logger.Error("close database", "err", err)
		}
	}()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		srv := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	rt := runtime.New(db, gene.AdminAddress(), events.NoopSink{}, nil)
	if err := gene.Apply(rt); err != nil {
		fatal("apply genesis:", err)
	}

	apiSrv, apiURL := startAPIServer(ctx, rt)
	defer func() {
		logger.Info("stopping API server...")
		_ = apiSrv.Shutdown(context.Background())
	}()

	logger.Info("marketplace started",
		"version", fullVersion(),
		"admin", gene.AdminAddress(),
		"api", apiURL,
	)

	return waitExitSignal()
}

func startAPIServer(ctx *cli.Context, rt *runtime.Runtime) (*http.Server, string) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal("listen API addr:", err)
	}

	handler := api.New(rt, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server", "err", err)
		}
	}()
	return srv, "http://" + listener.Addr().String() + "/"
}

func startMetricsServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: metrics.HTTPHandler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("metrics server started", "addr", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server", "err", err)
		}
	}()
	return srv
}

func waitExitSignal() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	logger.Info("exit signal received", "signal", s)
	return nil
}
