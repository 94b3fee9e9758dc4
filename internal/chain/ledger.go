// Copyright 2024 The go-equa Authors

package chain

import (
	"errors"
	"math"

	"github.com/equa/go-equa-chain/internal/chainhash"
)

// ErrAccountUnknown is returned by Debit when the sender has never
// received a credit. This is distinct from a known account with a zero
// balance.
var ErrAccountUnknown = errors.New("chain: account unknown")

// ErrInsufficientFunds is returned by Debit when the sender's balance
// is lower than the requested amount.
var ErrInsufficientFunds = errors.New("chain: insufficient funds")

// ErrAmountOverflow is returned when a credit would overflow a uint64
// balance. The source this system is modeled on wraps silently; this
// implementation treats overflow as a hard failure instead (see
// DESIGN.md).
var ErrAmountOverflow = errors.New("chain: amount overflow")

// Ledger is a partial mapping from address to balance. Entries are
// created lazily on first credit and are never removed.
type Ledger struct {
	balances map[chainhash.Address]uint64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[chainhash.Address]uint64)}
}

// Balance returns the account's balance and whether the account is
// known. An unknown account reports (0, false).
func (l *Ledger) Balance(addr chainhash.Address) (uint64, bool) {
	bal, ok := l.balances[addr]
	return bal, ok
}

// Credit adds amount to addr's balance, creating the account if it did
// not already exist.
func (l *Ledger) Credit(addr chainhash.Address, amount uint64) error {
	current := l.balances[addr]
	if current > math.MaxUint64-amount {
		return ErrAmountOverflow
	}
	l.balances[addr] = current + amount
	return nil
}

// Debit subtracts amount from sender's balance after crediting it to
// recipient, failing atomically (neither side is mutated) if sender is
// unknown or underfunded.
func (l *Ledger) Debit(sender, recipient chainhash.Address, amount uint64) error {
	senderBalance, ok := l.balances[sender]
	if !ok {
		return ErrAccountUnknown
	}
	if senderBalance < amount {
		return ErrInsufficientFunds
	}

	if sender == recipient {
		// Net balance is unchanged; the sufficiency check above already
		// proved this transfer is valid.
		return nil
	}

	recipientBalance := l.balances[recipient]
	if recipientBalance > math.MaxUint64-amount {
		return ErrAmountOverflow
	}

	l.balances[sender] = senderBalance - amount
	l.balances[recipient] = recipientBalance + amount
	return nil
}

// TotalSupply returns the sum of every known account balance.
func (l *Ledger) TotalSupply() uint64 {
	var total uint64
	for _, bal := range l.balances {
		total += bal
	}
	return total
}
