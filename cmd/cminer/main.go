// cminer is a proof-of-work miner for a 3-way SHA-256 collision chain.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/collisionlabs/cminer/internal/api"
	"github.com/collisionlabs/cminer/internal/config"
	"github.com/collisionlabs/cminer/internal/coordinator"
	"github.com/collisionlabs/cminer/internal/metrics"
	"github.com/collisionlabs/cminer/internal/notify"
	"github.com/collisionlabs/cminer/internal/profiling"
	"github.com/collisionlabs/cminer/internal/rpcnode"
	"github.com/collisionlabs/cminer/internal/util"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cminer v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 || args[0] != "mine" {
		fmt.Fprintln(os.Stderr, "usage: cminer [-config path] mine <payload_string> [difficulty_override]")
		os.Exit(1)
	}
	args = args[1:]
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: cminer [-config path] mine <payload_string> [difficulty_override]")
		os.Exit(1)
	}
	payload := args[0]

	var difficultyOverride *uint64
	if len(args) >= 2 {
		v, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid difficulty_override %q: %v\n", args[1], err)
			os.Exit(1)
		}
		difficultyOverride = &v
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := util.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	util.Infof("cminer v%s starting algorithm=%s", version, cfg.Mining.Algorithm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := rpcnode.NewManager(ctx, &cfg.Node)
	node.Start()
	defer node.Stop()

	n := notify.NewNotifier(cfg.Notify)

	m := metrics.NewRecorder(cfg.NewRelic)
	if err := m.Start(); err != nil {
		util.Errorf("failed to start New Relic agent: %v", err)
	}
	defer m.Stop()

	var pprofServer *profiling.Server
	if cfg.Profiling.Enabled {
		pprofServer = profiling.NewServer(&cfg.Profiling)
		if err := pprofServer.Start(); err != nil {
			util.Errorf("failed to start pprof server: %v", err)
		}
	}

	coord := coordinator.New(cfg, node, n, m, payload, difficultyOverride)
	if err := coord.Start(); err != nil {
		util.Fatalf("failed to start coordinator: %v", err)
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg, coord)
		if err := apiServer.Start(); err != nil {
			util.Errorf("failed to start status API: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	util.Info("mining started, press Ctrl+C to stop")
	<-sigChan
	util.Info("shutting down")

	if apiServer != nil {
		apiServer.Stop()
	}
	coord.Stop()
	if pprofServer != nil {
		pprofServer.Stop()
	}
}
