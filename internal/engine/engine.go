// Copyright 2024 The go-equa Authors

// Package engine composes the block store, ledger, and mempool behind
// one readers-writer lock and exposes the atomic operations the HTTP
// adapter, peer synchronizer, and miner client all call into.
package engine

import (
	"sync"
	"time"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/chain/validate"
	"github.com/equa/go-equa-chain/internal/chainhash"
	"github.com/equa/go-equa-chain/internal/logutil"
)

var log = logutil.New("engine")

// Engine owns the block store, ledger, and mempool for a single node
// and serializes every mutation behind mu. Validation and mutation
// always happen inside the same critical section, so no observer can
// ever see the block store and ledger disagree.
type Engine struct {
	mu sync.RWMutex

	network chain.Network
	blocks  *chain.BlockStore
	ledger  *chain.Ledger
	mempool *chain.Mempool

	stats Stats
}

// New returns an Engine bound to network, with empty block store,
// ledger, and mempool.
func New(network chain.Network) *Engine {
	return &Engine{
		network: network,
		blocks:  chain.NewBlockStore(),
		ledger:  chain.NewLedger(),
		mempool: chain.NewMempool(),
		stats:   Stats{StartTime: time.Now()},
	}
}

// Network returns the node's immutable network descriptor.
func (e *Engine) Network() chain.Network {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.network
}

// TipBlock returns the highest-index accepted block.
func (e *Engine) TipBlock() (chain.Block, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.blocks.Tip()
}

// AllBlocks returns every accepted block, genesis first.
func (e *Engine) AllBlocks() []chain.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.blocks.All()
}

// AccountBalance returns addr's balance and whether the account is
// known.
func (e *Engine) AccountBalance(addr chainhash.Address) (uint64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Balance(addr)
}

// MempoolTransactions returns a snapshot of the pending transaction
// pool in insertion order.
func (e *Engine) MempoolTransactions() []chain.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mempool.Snapshot()
}

// AppendBlock validates candidate against the current state and, on
// success, atomically appends it to the block store, credits the
// coinbase, applies every transfer in order, and evicts the now-included
// transactions from the mempool. On validation failure the engine state
// is left byte-identical to before the call.
func (e *Engine) AppendBlock(candidate chain.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := validate.Block(e, candidate); err != nil {
		e.stats.RejectedBlocks++
		return err
	}

	coinbase, _ := candidate.Coinbase()
	// Validation already proved the coinbase is present and credits
	// never overflow uint64 for a BlockSubsidy-sized amount; any error
	// here would indicate a logic bug, not bad input.
	_ = e.ledger.Credit(coinbase.Recipient, coinbase.Amount)

	for _, tx := range candidate.NonCoinbaseTransactions() {
		// Validation proved every debit succeeds against the pre-block
		// ledger; sequential application here can only fail if an
		// earlier transfer in this same block changed the picture,
		// which is exactly the asymmetry §4.2 documents and preserves.
		_ = e.ledger.Debit(tx.Sender, tx.Recipient, tx.Amount)
	}

	e.blocks.Append(candidate)
	e.mempool.RemoveIncluded(candidate.NonCoinbaseTransactions())

	e.stats.BlocksAccepted++
	e.stats.TransactionsAccepted += uint64(len(candidate.Transactions))

	log.Info("block accepted", "index", candidate.Index, "hash", candidate.Hash.String(), "txs", len(candidate.Transactions))

	return nil
}

// AddMempoolTransaction validates tx against the current ledger and, on
// success, appends it to the mempool.
func (e *Engine) AddMempoolTransaction(tx chain.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := validate.Transaction(e, tx); err != nil {
		return err
	}

	e.mempool.Add(tx)
	return nil
}

// BlockTemplate returns a not-yet-sealed block extending the current
// tip (or the genesis slot if the store is empty), carrying a snapshot
// of the mempool. The Hash field is populated for completeness but
// callers intending to mine must recompute it after setting Nonce.
func (e *Engine) BlockTemplate() chain.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()

	template := chain.Block{
		Timestamp:    time.Now().Unix(),
		Transactions: e.mempool.Snapshot(),
	}

	if tip, ok := e.blocks.Tip(); ok {
		template.Index = tip.Index + 1
		template.PreviousHash = tip.Hash
	} else {
		template.Index = 0
		template.PreviousHash = e.network.Hash()
	}

	template.Hash = template.CalculateHash()
	return template
}

// Stats returns a point-in-time snapshot of engine counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.stats
	s.Uptime = time.Since(s.StartTime)
	return s
}
