// Copyright 2024 The go-equa Authors

// Package miner drives the Idle -> Templating -> Searching ->
// Submitting -> Idle state machine of a standalone mining client
// talking to a node over HTTP. The proof-of-work search itself is
// grounded on the teacher's LightPoW worker-pool race
// (consensus/equa/pow.go), simplified to a single stopping rule: the
// first nonce whose hash meets the leading-zero target wins, with no
// quality-window heuristic.
package miner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/chainhash"
	"github.com/equa/go-equa-chain/internal/logutil"
)

var log = logutil.New("miner")

// State names the miner's current phase.
type State string

const (
	StateIdle       State = "idle"
	StateTemplating State = "templating"
	StateSearching  State = "searching"
	StateSubmitting State = "submitting"
)

// ErrStopped is returned by Solve when ctx is canceled before any
// worker finds a qualifying nonce.
var ErrStopped = errors.New("pow search stopped")

// Miner repeatedly fetches a block template from a node, searches for
// a qualifying nonce, and submits the sealed block back to the node.
type Miner struct {
	nodeURL    string
	address    chainhash.Address
	difficulty uint32
	maxNonce   uint64
	client     *http.Client

	mu    sync.Mutex
	state State
}

// New returns a Miner submitting blocks credited to address against
// the node at nodeURL. difficulty is the operator's expected PoW
// difficulty; every round it is checked against the node's actual
// network difficulty and a mismatch is logged, since mining against
// the wrong difficulty wastes work the node will reject or undersells
// the work actually required. maxNonce is the exclusive upper bound of
// each search's nonce space, shared by all workers; 0 selects a
// generous default.
func New(nodeURL string, address chainhash.Address, difficulty uint32, maxNonce uint64) *Miner {
	if maxNonce == 0 {
		maxNonce = 1_000_000_000
	}
	return &Miner{
		nodeURL:    nodeURL,
		address:    address,
		difficulty: difficulty,
		maxNonce:   maxNonce,
		client:     &http.Client{Timeout: 30 * time.Second},
		state:      StateIdle,
	}
}

// State returns the miner's current phase.
func (m *Miner) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Miner) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run cycles Idle -> Templating -> Searching -> Submitting -> Idle
// until ctx is canceled or maxBlocks blocks have been submitted
// (0 means unbounded).
func (m *Miner) Run(ctx context.Context, maxBlocks uint64) error {
	var submitted uint64
	for {
		if maxBlocks > 0 && submitted >= maxBlocks {
			m.setState(StateIdle)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.mineOne(ctx); err != nil {
			if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			log.Warn("mining cycle failed", "error", err)
			continue
		}
		submitted++
	}
}

func (m *Miner) mineOne(ctx context.Context) error {
	m.setState(StateTemplating)
	network, err := m.fetchNetwork(ctx)
	if err != nil {
		return fmt.Errorf("fetch network: %w", err)
	}
	if m.difficulty != 0 && network.Difficulty != m.difficulty {
		log.Warn("node difficulty does not match configured difficulty", "configured", m.difficulty, "node", network.Difficulty)
	}

	template, err := m.fetchTemplate(ctx)
	if err != nil {
		return fmt.Errorf("fetch template: %w", err)
	}
	if err := setCoinbase(&template, m.address); err != nil {
		return err
	}

	m.setState(StateSearching)
	sealed, err := Solve(ctx, template, network.Difficulty, m.maxNonce)
	if err != nil {
		return err
	}

	m.setState(StateSubmitting)
	if err := m.submitBlock(ctx, sealed); err != nil {
		return fmt.Errorf("submit block: %w", err)
	}

	log.Info("block mined", "index", sealed.Index, "hash", sealed.Hash.String(), "nonce", sealed.Nonce)
	m.setState(StateIdle)
	return nil
}

// setCoinbase prepends a coinbase paying the block subsidy to address;
// the template's mempool transactions follow it unchanged.
func setCoinbase(block *chain.Block, address chainhash.Address) error {
	coinbase := chain.Transaction{Recipient: address, Amount: chain.BlockSubsidy}
	block.Transactions = append([]chain.Transaction{coinbase}, block.Transactions...)
	return nil
}

// Solve runs a worker pool over runtime.NumCPU() goroutines racing on
// disjoint nonce strides, returning the block sealed with the first
// nonce found whose hash meets difficulty leading zero bits.
func Solve(ctx context.Context, template chain.Block, difficulty uint32, maxNonce uint64) (chain.Block, error) {
	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}

	found := make(chan uint64, numWorkers)
	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			searchWorker(searchCtx, template, difficulty, start, uint64(numWorkers), maxNonce, found)
		}(uint64(w))
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	nonce, ok := <-found
	cancel()
	wg.Wait()

	if !ok {
		if ctx.Err() != nil {
			return chain.Block{}, ErrStopped
		}
		return chain.Block{}, errors.New("exhausted nonce space without finding a qualifying hash")
	}

	template.Nonce = nonce
	template.Hash = template.CalculateHash()
	return template, nil
}

func searchWorker(ctx context.Context, template chain.Block, difficulty uint32, start, stride, maxNonce uint64, found chan<- uint64) {
	candidate := template
	for nonce := start; nonce < maxNonce; nonce += stride {
		select {
		case <-ctx.Done():
			return
		default:
		}

		candidate.Nonce = nonce
		hash := candidate.CalculateHash()
		if uint32(hash.LeadingZeros()) >= difficulty {
			select {
			case found <- nonce:
			case <-ctx.Done():
			}
			return
		}
	}
}

func (m *Miner) fetchNetwork(ctx context.Context) (chain.Network, error) {
	var network chain.Network
	err := m.getJSON(ctx, "/network", &network)
	return network, err
}

func (m *Miner) fetchTemplate(ctx context.Context) (chain.Block, error) {
	var block chain.Block
	err := m.getJSON(ctx, "/block_template", &block)
	return block, err
}

func (m *Miner) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.nodeURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (m *Miner) submitBlock(ctx context.Context, block chain.Block) error {
	body, err := json.Marshal(block)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.nodeURL+"/blocks", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node rejected block: status %d", resp.StatusCode)
	}
	return nil
}
