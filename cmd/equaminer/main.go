// Copyright 2024 The go-equa Authors

// Command equaminer runs a standalone mining client against a running
// equanode, repeatedly fetching a block template, searching for a
// qualifying proof-of-work nonce, and submitting the sealed block back.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/equa/go-equa-chain/internal/chainhash"
	"github.com/equa/go-equa-chain/internal/logutil"
	"github.com/equa/go-equa-chain/internal/miner"
)

var log = logutil.New("equaminer")

func main() {
	app := &cli.App{
		Name:  "equaminer",
		Usage: "mine blocks against a running equanode",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "node", Usage: "node base URL", Value: "http://127.0.0.1:8080", EnvVars: []string{"EQUAMINER_NODE"}},
			&cli.StringFlag{Name: "address", Usage: "miner address to credit with block subsidies (hex)", Required: true, EnvVars: []string{"EQUAMINER_ADDRESS"}},
			&cli.UintFlag{Name: "difficulty", Usage: "expected network difficulty, checked against the node's actual value each round (0 = skip the check)", EnvVars: []string{"EQUAMINER_DIFFICULTY"}},
			&cli.Uint64Flag{Name: "max-nonce", Usage: "exclusive nonce search ceiling, shared by all workers (0 = default)", Value: 0, EnvVars: []string{"EQUAMINER_MAX_NONCE"}},
			&cli.Uint64Flag{Name: "max-blocks", Usage: "stop after mining this many blocks (0 = unbounded)", EnvVars: []string{"EQUAMINER_MAX_BLOCKS"}},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("startup failed", "error", err)
	}
}

func run(c *cli.Context) error {
	addr, err := chainhash.ParseAddress(c.String("address"))
	if err != nil {
		return err
	}

	m := miner.New(c.String("node"), addr, uint32(c.Uint("difficulty")), c.Uint64("max-nonce"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("mining started", "node", c.String("node"), "address", addr.String())
	err = m.Run(ctx, c.Uint64("max-blocks"))
	if err != nil && err != context.Canceled {
		return err
	}

	log.Info("mining stopped")
	return nil
}
