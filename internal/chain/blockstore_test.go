// Copyright 2024 The go-equa Authors

package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockStoreEmptyHasNoTip(t *testing.T) {
	s := NewBlockStore()
	_, ok := s.Tip()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestBlockStoreAppendAndTip(t *testing.T) {
	s := NewBlockStore()
	s.Append(Block{Index: 0})
	s.Append(Block{Index: 1})

	tip, ok := s.Tip()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), tip.Index)
	assert.Equal(t, 2, s.Len())
}

func TestBlockStoreAllIsACopy(t *testing.T) {
	s := NewBlockStore()
	s.Append(Block{Index: 0})

	blocks := s.All()
	blocks[0].Index = 99

	tip, _ := s.Tip()
	assert.Equal(t, uint64(0), tip.Index, "mutating the returned slice must not affect the store")
}
