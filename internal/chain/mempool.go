// Copyright 2024 The go-equa Authors

package chain

// Mempool is an insertion-ordered multiset of pending transactions.
// Duplicates are permitted: transactions carry no nonce or id, so two
// structurally identical transfers are indistinguishable (see
// DESIGN.md's note on transaction identity).
type Mempool struct {
	pending []Transaction
}

// NewMempool returns an empty mempool.
func NewMempool() *Mempool {
	return &Mempool{}
}

// Add appends tx to the pool.
func (m *Mempool) Add(tx Transaction) {
	m.pending = append(m.pending, tx)
}

// Snapshot returns a copy of the pool contents in insertion order.
func (m *Mempool) Snapshot() []Transaction {
	out := make([]Transaction, len(m.pending))
	copy(out, m.pending)
	return out
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	return len(m.pending)
}

// RemoveIncluded deletes every occurrence of every transaction in
// included from the pool, preserving the relative order of what
// remains.
func (m *Mempool) RemoveIncluded(included []Transaction) {
	if len(included) == 0 {
		return
	}

	remaining := m.pending[:0:0]
	for _, tx := range m.pending {
		if !containsEqual(included, tx) {
			remaining = append(remaining, tx)
		}
	}
	m.pending = remaining
}

func containsEqual(set []Transaction, tx Transaction) bool {
	for _, candidate := range set {
		if candidate.Equal(tx) {
			return true
		}
	}
	return false
}
