// Copyright 2024 The go-equa Authors
// This file is part of the go-equa-chain library.
//
// The go-equa-chain library is free software: you can redistribute it
// and/or modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation, either version
// 3 of the License, or (at your option) any later version.
//
// The go-equa-chain library is distributed in the hope that it will be
// useful, but WITHOUT ANY WARRANTY; without even the implied warranty
// of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Lesser General Public License for more details.

// Package validate implements the pure consensus rules that decide
// whether a candidate block or transaction may be admitted. Every
// function here is a pure function of a read-only StateView plus the
// candidate; none of them mutate state.
package validate

import (
	"errors"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/chainhash"
)

// Sentinel validation errors. These are surfaced verbatim to HTTP
// clients, so their text is part of the wire contract.
var (
	ErrInvalidIndex                = errors.New("invalid index")
	ErrInvalidPreviousHash         = errors.New("invalid previous_hash")
	ErrInvalidHash                 = errors.New("invalid hash")
	ErrInvalidDifficulty           = errors.New("invalid difficulty")
	ErrDuplicatedGenesis           = errors.New("duplicated genesis")
	ErrMismatchedNetwork           = errors.New("mismatched network")
	ErrBlockchainIsEmpty           = errors.New("blockchain is empty")
	ErrCoinbaseTransactionNotFound = errors.New("coinbase transaction not found")
	ErrInvalidCoinbaseAmount       = errors.New("invalid coinbase amount")
	ErrSenderAccountDoesNotExist   = errors.New("sender account does not exist")
	ErrInsufficientFunds           = errors.New("insufficient funds")
)

// StateView is the narrow read-only surface validators need. The
// engine satisfies it directly; tests can satisfy it with a fake.
type StateView interface {
	Network() chain.Network
	TipBlock() (chain.Block, bool)
	AccountBalance(addr chainhash.Address) (uint64, bool)
}

// Block runs every metadata and transaction rule against candidate, in
// the order required for cross-node determinism: the genesis-or-chain
// branch, then hash, then proof-of-work, then the coinbase, then every
// remaining transaction against the pre-block ledger.
func Block(view StateView, candidate chain.Block) error {
	if err := blockMetadata(view, candidate); err != nil {
		return err
	}
	return blockTransactions(view, candidate)
}

func blockMetadata(view StateView, candidate chain.Block) error {
	if candidate.Index == 0 {
		if err := Genesis(view, candidate); err != nil {
			return err
		}
	} else {
		if err := Chain(view, candidate); err != nil {
			return err
		}
	}

	if err := BlockHash(candidate); err != nil {
		return err
	}

	return ProofOfWork(view.Network().Difficulty, candidate)
}

func blockTransactions(view StateView, candidate chain.Block) error {
	coinbase, ok := candidate.Coinbase()
	if err := Coinbase(coinbase, ok); err != nil {
		return err
	}

	// Validation reads the pre-block ledger: the coinbase and earlier
	// transactions in this block are not yet reflected, so a transfer
	// spending funds paid by this same block is correctly rejected.
	for _, tx := range candidate.NonCoinbaseTransactions() {
		if err := Transaction(view, tx); err != nil {
			return err
		}
	}

	return nil
}

// BlockHash fails ErrInvalidHash unless candidate.Hash equals the
// digest of candidate with Hash cleared.
func BlockHash(candidate chain.Block) error {
	if candidate.Hash != candidate.CalculateHash() {
		return ErrInvalidHash
	}
	return nil
}

// ProofOfWork fails ErrInvalidDifficulty unless candidate.Hash has at
// least difficulty leading zero bits.
func ProofOfWork(difficulty uint32, candidate chain.Block) error {
	if candidate.Hash.LeadingZeros() < int(difficulty) {
		return ErrInvalidDifficulty
	}
	return nil
}

// Genesis requires candidate to be index 0, the store to be currently
// empty, and previous_hash to equal the network's hash.
func Genesis(view StateView, candidate chain.Block) error {
	if candidate.Index != 0 {
		return ErrInvalidIndex
	}
	if _, exists := view.TipBlock(); exists {
		return ErrDuplicatedGenesis
	}
	if candidate.PreviousHash != view.Network().Hash() {
		return ErrMismatchedNetwork
	}
	return nil
}

// Chain requires the store to be non-empty, candidate.Index to be
// tip.Index+1, and candidate.PreviousHash to equal tip.Hash.
func Chain(view StateView, candidate chain.Block) error {
	tip, ok := view.TipBlock()
	if !ok {
		return ErrBlockchainIsEmpty
	}
	if candidate.Index != tip.Index+1 {
		return ErrInvalidIndex
	}
	if candidate.PreviousHash != tip.Hash {
		return ErrInvalidPreviousHash
	}
	return nil
}

// Coinbase requires presence and the fixed block subsidy amount. The
// coinbase sender is unconstrained.
func Coinbase(coinbase chain.Transaction, present bool) error {
	if !present {
		return ErrCoinbaseTransactionNotFound
	}
	if coinbase.Amount != chain.BlockSubsidy {
		return ErrInvalidCoinbaseAmount
	}
	return nil
}

// Transaction requires an existing sender account with a balance of at
// least tx.Amount. Sender == recipient is permitted.
func Transaction(view StateView, tx chain.Transaction) error {
	balance, ok := view.AccountBalance(tx.Sender)
	if !ok {
		return ErrSenderAccountDoesNotExist
	}
	if balance < tx.Amount {
		return ErrInsufficientFunds
	}
	return nil
}
