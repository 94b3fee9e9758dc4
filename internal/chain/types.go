// Copyright 2024 The go-equa Authors

// Package chain holds the validated data model of the blockchain: the
// immutable Transaction and Block records, the Network descriptor that
// pins a chain's identity, and the canonical byte encoding used to
// derive every hash in the system.
package chain

import (
	"bytes"
	"encoding/binary"

	"github.com/equa/go-equa-chain/internal/chainhash"
)

// BlockSubsidy is the fixed reward credited to a block's coinbase
// recipient on every accepted block.
const BlockSubsidy uint64 = 100

// Transaction moves Amount coins from Sender to Recipient. Two
// transactions are equal iff all three fields are equal.
type Transaction struct {
	Sender    chainhash.Address `json:"sender"`
	Recipient chainhash.Address `json:"recipient"`
	Amount    uint64            `json:"amount"`
}

// Equal reports structural equality between t and other.
func (t Transaction) Equal(other Transaction) bool {
	return t.Sender == other.Sender && t.Recipient == other.Recipient && t.Amount == other.Amount
}

// canonicalBytes appends the canonical, deterministic encoding of t to
// buf: sender bytes, recipient bytes, then the amount as a fixed-width
// little-endian u64. There is no length prefix because every field is
// fixed-width.
func (t Transaction) canonicalBytes(buf *bytes.Buffer) {
	buf.Write(t.Sender[:])
	buf.Write(t.Recipient[:])
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], t.Amount)
	buf.Write(amt[:])
}

// Block is an immutable, hash-chained record of accepted transactions.
// Hash is derived: it must equal Digest(b) with Hash cleared to its
// zero value. The first entry of Transactions is always the coinbase.
type Block struct {
	Index        uint64         `json:"index"`
	Timestamp    int64          `json:"timestamp"`
	Nonce        uint64         `json:"nonce"`
	PreviousHash chainhash.Hash `json:"previous_hash"`
	Hash         chainhash.Hash `json:"hash"`
	Transactions []Transaction  `json:"transactions"`
}

// Coinbase returns the block's first transaction and whether it is
// present.
func (b Block) Coinbase() (Transaction, bool) {
	if len(b.Transactions) == 0 {
		return Transaction{}, false
	}
	return b.Transactions[0], true
}

// NonCoinbaseTransactions returns every transaction in the block other
// than the coinbase.
func (b Block) NonCoinbaseTransactions() []Transaction {
	if len(b.Transactions) <= 1 {
		return nil
	}
	return b.Transactions[1:]
}

// CalculateHash computes the canonical digest of b with Hash cleared,
// i.e. the value b.Hash must equal for the block to be self-consistent.
func (b Block) CalculateHash() chainhash.Hash {
	cleared := b
	cleared.Hash = chainhash.Hash{}
	return chainhash.Digest(cleared.canonicalBytes())
}

// canonicalBytes returns the canonical, deterministic byte encoding of
// b: fixed-width little-endian integers in declaration order, the two
// hash fields verbatim, and the transaction sequence length-prefixed by
// a little-endian u64 count.
func (b Block) canonicalBytes() []byte {
	var buf bytes.Buffer

	var fixed [24]byte
	binary.LittleEndian.PutUint64(fixed[0:8], b.Index)
	binary.LittleEndian.PutUint64(fixed[8:16], uint64(b.Timestamp))
	binary.LittleEndian.PutUint64(fixed[16:24], b.Nonce)
	buf.Write(fixed[:])

	buf.Write(b.PreviousHash[:])
	buf.Write(b.Hash[:])

	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(b.Transactions)))
	buf.Write(count[:])
	for _, tx := range b.Transactions {
		tx.canonicalBytes(&buf)
	}

	return buf.Bytes()
}

// Network is the immutable configuration tuple that pins a node's
// genesis identity. Its hash is the previous_hash of the genesis block,
// so two nodes with different Network values can never share a chain.
type Network struct {
	Description string `json:"description"`
	Difficulty  uint32 `json:"difficulty"`
	Timestamp   int64  `json:"timestamp"`
}

// Hash returns the canonical digest of n.
func (n Network) Hash() chainhash.Hash {
	var buf bytes.Buffer

	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(n.Description)))
	buf.Write(length[:])
	buf.WriteString(n.Description)

	var rest [12]byte
	binary.LittleEndian.PutUint32(rest[0:4], n.Difficulty)
	binary.LittleEndian.PutUint64(rest[4:12], uint64(n.Timestamp))
	buf.Write(rest[:])

	return chainhash.Digest(buf.Bytes())
}
