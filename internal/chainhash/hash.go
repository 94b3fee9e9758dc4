// Copyright 2024 The go-equa Authors

// Package chainhash implements the content-addressed digest and the
// opaque address type shared by every consensus-relevant structure.
package chainhash

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/sha3"
)

// Size is the length in bytes of a Hash or an Address.
const Size = 32

// ErrInvalidFormat is returned when a hex string contains non-hex
// characters.
var ErrInvalidFormat = errors.New("chainhash: invalid hex format")

// ErrInvalidLength is returned when a decoded value is not exactly
// Size bytes long.
var ErrInvalidLength = errors.New("chainhash: invalid length")

// Hash is a 32-byte content-addressed digest.
type Hash [Size]byte

// Digest returns the SHA3-256 digest of b.
func Digest(b []byte) Hash {
	return Hash(sha3.Sum256(b))
}

// String renders h as 64 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the underlying 32 bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// IsZero reports whether h is the default, all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// LeadingZeros counts the leading zero bits of h, interpreted
// big-endian, in the range 0..256.
func (h Hash) LeadingZeros() int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// ParseHash decodes a hex-encoded hash, accepting any case.
func ParseHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// MarshalJSON implements json.Marshaler, emitting the hash as a
// lowercase hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(h[:])
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHexJSON(data)
	if err != nil {
		return err
	}
	copy(h[:], b)
	return nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if len(b) != Size {
		return nil, ErrInvalidLength
	}
	return b, nil
}
