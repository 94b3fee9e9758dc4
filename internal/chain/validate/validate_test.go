// Copyright 2024 The go-equa Authors

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equa/go-equa-chain/internal/chain"
	"github.com/equa/go-equa-chain/internal/chainhash"
)

// fakeView is a minimal, hand-rolled StateView used to test validators
// in isolation from the engine.
type fakeView struct {
	network  chain.Network
	tip      *chain.Block
	balances map[chainhash.Address]uint64
}

func newFakeView() *fakeView {
	return &fakeView{
		network:  chain.Network{Description: "test network", Difficulty: 0},
		balances: make(map[chainhash.Address]uint64),
	}
}

func (f *fakeView) Network() chain.Network { return f.network }

func (f *fakeView) TipBlock() (chain.Block, bool) {
	if f.tip == nil {
		return chain.Block{}, false
	}
	return *f.tip, true
}

func (f *fakeView) AccountBalance(addr chainhash.Address) (uint64, bool) {
	bal, ok := f.balances[addr]
	return bal, ok
}

func minerAddr() chainhash.Address { return chainhash.Address{0xfe, 0xaa} }
func aliceAddr() chainhash.Address { return chainhash.Address{0xf7, 0x80} }
func bobAddr() chainhash.Address   { return chainhash.Address{0xbb} }

func coinbaseTx(recipient chainhash.Address) chain.Transaction {
	return chain.Transaction{Recipient: recipient, Amount: chain.BlockSubsidy}
}

func sealedBlock(index uint64, previousHash chainhash.Hash, txs []chain.Transaction) chain.Block {
	b := chain.Block{Index: index, PreviousHash: previousHash, Transactions: txs}
	b.Hash = b.CalculateHash()
	return b
}

func TestGenesisAccepted(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})

	assert.NoError(t, Block(view, block))
}

func TestGenesisRejectsNonZeroIndex(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(1, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})

	err := Genesis(view, block)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestGenesisRejectsDuplicate(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis

	dup := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	err := Block(view, dup)
	assert.ErrorIs(t, err, ErrDuplicatedGenesis)
}

func TestGenesisRejectsMismatchedNetwork(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(0, chainhash.Digest([]byte("wrong network")), []chain.Transaction{coinbaseTx(minerAddr())})

	err := Block(view, block)
	assert.ErrorIs(t, err, ErrMismatchedNetwork)
}

func TestChainRejectsInvalidPreviousHash(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis
	view.balances[minerAddr()] = chain.BlockSubsidy

	bad := sealedBlock(1, chainhash.Hash{}, []chain.Transaction{coinbaseTx(bobAddr())})
	err := Block(view, bad)
	assert.ErrorIs(t, err, ErrInvalidPreviousHash)
}

func TestChainRejectsWrongIndex(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis

	bad := sealedBlock(5, genesis.Hash, []chain.Transaction{coinbaseTx(bobAddr())})
	err := Block(view, bad)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestBlockHashMustMatchDerivedValue(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	block.Hash[0] ^= 0xff

	err := Block(view, block)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestProofOfWorkRejectsLowDifficultyHash(t *testing.T) {
	view := newFakeView()
	view.network.Difficulty = 250

	block := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	err := Block(view, block)
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestCoinbaseMustBePresent(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(0, view.network.Hash(), nil)

	err := Block(view, block)
	assert.ErrorIs(t, err, ErrCoinbaseTransactionNotFound)
}

func TestCoinbaseAmountMustMatchSubsidy(t *testing.T) {
	view := newFakeView()
	block := sealedBlock(0, view.network.Hash(), []chain.Transaction{{Recipient: minerAddr(), Amount: 1}})

	err := Block(view, block)
	assert.ErrorIs(t, err, ErrInvalidCoinbaseAmount)
}

func TestTransactionRejectsUnknownSender(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis

	block := sealedBlock(1, genesis.Hash, []chain.Transaction{
		coinbaseTx(minerAddr()),
		{Sender: aliceAddr(), Recipient: bobAddr(), Amount: 1},
	})
	err := Block(view, block)
	assert.ErrorIs(t, err, ErrSenderAccountDoesNotExist)
}

func TestTransactionRejectsInsufficientFunds(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis
	view.balances[aliceAddr()] = 100

	block := sealedBlock(1, genesis.Hash, []chain.Transaction{
		coinbaseTx(bobAddr()),
		{Sender: aliceAddr(), Recipient: bobAddr(), Amount: 101},
	})
	err := Block(view, block)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransactionCannotSpendSameBlockCoinbase(t *testing.T) {
	// Validation reads the pre-block ledger: a transaction spending the
	// coinbase minted in this very block must be rejected, since the
	// coinbase has not been credited yet at validation time.
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis

	block := sealedBlock(1, genesis.Hash, []chain.Transaction{
		coinbaseTx(aliceAddr()),
		{Sender: aliceAddr(), Recipient: bobAddr(), Amount: 10},
	})
	err := Block(view, block)
	assert.ErrorIs(t, err, ErrSenderAccountDoesNotExist)
}

func TestTransactionAllowsSelfTransfer(t *testing.T) {
	view := newFakeView()
	genesis := sealedBlock(0, view.network.Hash(), []chain.Transaction{coinbaseTx(minerAddr())})
	view.tip = &genesis
	view.balances[aliceAddr()] = 100

	block := sealedBlock(1, genesis.Hash, []chain.Transaction{
		coinbaseTx(bobAddr()),
		{Sender: aliceAddr(), Recipient: aliceAddr(), Amount: 50},
	})
	require.NoError(t, Block(view, block))
}
