// Copyright 2024 The go-equa Authors

package chain

// BlockStore is an ordered, append-only sequence of accepted blocks.
// For all i>0, blocks[i].Index == i and blocks[i].PreviousHash ==
// blocks[i-1].Hash; callers are responsible for validating a block
// before Append, the store itself does not re-validate.
type BlockStore struct {
	blocks []Block
}

// NewBlockStore returns an empty block store.
func NewBlockStore() *BlockStore {
	return &BlockStore{}
}

// Append adds b to the end of the store.
func (s *BlockStore) Append(b Block) {
	s.blocks = append(s.blocks, b)
}

// Len returns the number of accepted blocks.
func (s *BlockStore) Len() int {
	return len(s.blocks)
}

// Tip returns the highest-index block and true, or the zero Block and
// false if the store is empty.
func (s *BlockStore) Tip() (Block, bool) {
	if len(s.blocks) == 0 {
		return Block{}, false
	}
	return s.blocks[len(s.blocks)-1], true
}

// All returns a copy of every accepted block, genesis first.
func (s *BlockStore) All() []Block {
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}
