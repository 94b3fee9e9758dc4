// Copyright 2024 The go-equa Authors

package chainhash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	a := Address{1, 2, 3}

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseAddressCaseInsensitive(t *testing.T) {
	a := Address{0xaa, 0xbb}

	parsed, err := ParseAddress(strings.ToUpper(a.String()))
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestParseAddressRejectsWrongLength(t *testing.T) {
	_, err := ParseAddress("aabb")
	assert.ErrorIs(t, err, ErrInvalidLength)
}
