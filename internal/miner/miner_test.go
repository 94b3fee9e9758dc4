// Copyright 2024 The go-equa Authors

package miner

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equa/go-equa-chain/internal/api"
	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/chainhash"
	"github.com/equa/go-equa-chain/internal/engine"
)

func TestSolveFindsQualifyingNonce(t *testing.T) {
	template := chain.Block{
		Index:        0,
		PreviousHash: chainhash.Hash{},
		Transactions: []chain.Transaction{{Recipient: chainhash.Address{1}, Amount: chain.BlockSubsidy}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sealed, err := Solve(ctx, template, 4, 5_000_000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sealed.Hash.LeadingZeros(), 4)
	assert.Equal(t, sealed.Hash, sealed.CalculateHash())
}

func TestSolveRespectsContextCancellation(t *testing.T) {
	template := chain.Block{
		Index:        0,
		PreviousHash: chainhash.Hash{},
		Transactions: []chain.Transaction{{Recipient: chainhash.Address{1}, Amount: chain.BlockSubsidy}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Solve(ctx, template, 64, 1000)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestMinerRunMinesAndSubmitsBlocks(t *testing.T) {
	net := chain.Network{Description: "test network", Difficulty: 1}
	eng := engine.New(net)
	srv := httptest.NewServer(api.New(eng))
	defer srv.Close()

	minerAddr := chainhash.Address{0x42}
	m := New(srv.URL, minerAddr, 1, 5_000_000)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, m.Run(ctx, 2))

	assert.Len(t, eng.AllBlocks(), 2)
	bal, ok := eng.AccountBalance(minerAddr)
	require.True(t, ok)
	assert.Equal(t, 2*chain.BlockSubsidy, bal)
}
