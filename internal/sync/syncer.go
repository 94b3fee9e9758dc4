// Copyright 2024 The go-equa Authors

// Package sync runs the peer-to-peer gossip loop: each cycle pulls
// blocks a peer has that the local node doesn't, then pushes blocks
// the local node has that the peer doesn't. It owns no consensus
// logic; every accepted block still passes through the engine's own
// validation.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/engine"
	"github.com/equa/go-equa-chain/internal/logutil"
)

var log = logutil.New("sync")

const requestTimeout = 5 * time.Second

// DefaultPeriod is the interval between sync cycles when the caller
// does not configure one explicitly.
const DefaultPeriod = 10 * time.Second

// Syncer periodically reconciles the local engine's chain against a
// fixed set of peers.
type Syncer struct {
	eng    *engine.Engine
	peers  []string
	period time.Duration
	client *http.Client

	mu       sync.Mutex
	pushedTo map[string]uint64 // peer -> one past the highest index last pushed
}

// New returns a Syncer for eng over peers, polling every period. A
// period <= 0 uses DefaultPeriod.
func New(eng *engine.Engine, peers []string, period time.Duration) *Syncer {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Syncer{
		eng:      eng,
		peers:    peers,
		period:   period,
		client:   &http.Client{Timeout: requestTimeout},
		pushedTo: make(map[string]uint64),
	}
}

// Run blocks, running one sync cycle immediately and then every
// period, until ctx is canceled. An empty peer list is a no-op: the
// loop logs and returns without ever ticking.
func (s *Syncer) Run(ctx context.Context) error {
	if len(s.peers) == 0 {
		log.Info("no peers configured, sync loop exiting")
		return nil
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one pull-then-push pass over every peer concurrently.
func (s *Syncer) cycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log.Info("sync cycle starting", "cycle_id", cycleID, "peers", len(s.peers))

	g, gctx := errgroup.WithContext(ctx)
	for _, peer := range s.peers {
		peer := peer
		g.Go(func() error {
			if err := s.pull(gctx, peer); err != nil {
				log.Warn("pull failed", "cycle_id", cycleID, "peer", peer, "error", err)
			}
			s.push(gctx, peer)
			return nil
		})
	}
	// Per-peer failures are logged, not fatal, so the group's error is
	// always nil here; g.Wait() only blocks until every peer finishes.
	_ = g.Wait()

	log.Info("sync cycle complete", "cycle_id", cycleID)
}

// pull fetches peer's blocks and appends the contiguous suffix above
// the local tip, stopping at the first block that fails validation.
func (s *Syncer) pull(ctx context.Context, peer string) error {
	blocks, err := s.fetchBlocks(ctx, peer)
	if err != nil {
		return err
	}

	localLen := uint64(len(s.eng.AllBlocks()))
	for _, block := range blocks {
		if block.Index < localLen {
			continue
		}
		if err := s.eng.AppendBlock(block); err != nil {
			log.Warn("remote block rejected", "peer", peer, "index", block.Index, "error", err)
			return nil
		}
		localLen = block.Index + 1
	}
	return nil
}

// push submits every local block above the cursor last pushed to peer.
// A block counts as sent for cursor purposes once an attempt has been
// made, whether or not that attempt succeeded: the cursor advances
// unconditionally so a peer that is unreachable for one cycle is never
// re-sent its entire backlog once it returns, matching the at-most-once
// push semantics.
func (s *Syncer) push(ctx context.Context, peer string) {
	blocks := s.eng.AllBlocks()

	s.mu.Lock()
	cursor := s.pushedTo[peer]
	s.mu.Unlock()

	for _, block := range blocks {
		if block.Index < cursor {
			continue
		}
		if err := s.postBlock(ctx, peer, block); err != nil {
			log.Warn("push block failed", "peer", peer, "index", block.Index, "error", err)
		}
		cursor = block.Index + 1

		s.mu.Lock()
		s.pushedTo[peer] = cursor
		s.mu.Unlock()
	}
}

func (s *Syncer) fetchBlocks(ctx context.Context, peer string) ([]chain.Block, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer+"/blocks", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var blocks []chain.Block
	if err := json.NewDecoder(resp.Body).Decode(&blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *Syncer) postBlock(ctx context.Context, peer string, block chain.Block) error {
	body, err := json.Marshal(block)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+"/blocks", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
