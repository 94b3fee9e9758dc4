// Copyright 2024 The go-equa Authors

// Command equanode runs a single chain node: the chain/state engine,
// its HTTP/JSON adapter, and the peer synchronizer, wired together
// behind one process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/equa/go-equa-chain/internal/api"
	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/engine"
	"github.com/equa/go-equa-chain/internal/logutil"
	syncpkg "github.com/equa/go-equa-chain/internal/sync"
)

var log = logutil.New("equanode")

func main() {
	app := &cli.App{
		Name:  "equanode",
		Usage: "run an equa chain node",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "HTTP listen port", Value: 8080, EnvVars: []string{"EQUANODE_PORT"}},
			&cli.StringFlag{Name: "peers", Usage: "comma-separated peer base URLs", EnvVars: []string{"EQUANODE_PEERS"}},
			&cli.DurationFlag{Name: "sync-period", Usage: "peer sync cycle period", Value: syncpkg.DefaultPeriod, EnvVars: []string{"EQUANODE_SYNC_PERIOD"}},
			&cli.UintFlag{Name: "difficulty", Usage: "proof-of-work difficulty (required leading zero bits)", Value: 16, EnvVars: []string{"EQUANODE_DIFFICULTY"}},
			&cli.StringFlag{Name: "network-description", Usage: "network descriptor string mixed into the genesis hash", Value: "equa-mainnet", EnvVars: []string{"EQUANODE_NETWORK_DESCRIPTION"}},
			&cli.Uint64Flag{Name: "max-blocks", Usage: "stop after accepting this many blocks (0 = unbounded)", EnvVars: []string{"EQUANODE_MAX_BLOCKS"}},
			&cli.StringFlag{Name: "log-file", Usage: "optional path to a rotating log file, in addition to stderr", EnvVars: []string{"EQUANODE_LOG_FILE"}},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("startup failed", "error", err)
	}
}

func run(c *cli.Context) error {
	if logFile := c.String("log-file"); logFile != "" {
		logutil.SetFileOutput(logFile, 100)
	}

	network := chain.Network{
		Description: c.String("network-description"),
		Difficulty:  uint32(c.Uint("difficulty")),
		Timestamp:   time.Now().Unix(),
	}

	eng := engine.New(network)
	server := api.New(eng)

	port := c.Int("port")
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	peers := parsePeers(c.String("peers"))
	syncer := syncpkg.New(eng, peers, c.Duration("sync-period"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpServer.Addr, "difficulty", network.Difficulty, "peers", len(peers))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		if err := syncer.Run(ctx); err != nil && err != context.Canceled {
			log.Warn("sync loop stopped", "error", err)
		}
	}()

	if maxBlocks := c.Uint64("max-blocks"); maxBlocks > 0 {
		go watchMaxBlocks(ctx, stop, eng, maxBlocks)
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// watchMaxBlocks polls the engine's chain length and triggers shutdown
// once maxBlocks have been accepted, letting operators bound a node's
// run for local demos and test harnesses.
func watchMaxBlocks(ctx context.Context, stop context.CancelFunc, eng *engine.Engine, maxBlocks uint64) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if uint64(len(eng.AllBlocks())) >= maxBlocks {
				log.Info("max-blocks reached, shutting down", "max_blocks", maxBlocks)
				stop()
				return
			}
		}
	}
}

func parsePeers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var peers []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			peers = append(peers, p)
		}
	}
	return peers
}
