// Copyright 2024 The go-equa Authors

package chainhash

import "encoding/hex"

// Address is an opaque 32-byte account identifier.
type Address [Size]byte

// String renders a as 64 lowercase hex characters.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the underlying 32 bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// IsZero reports whether a is the default, all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseAddress decodes a hex-encoded address, accepting any case.
func ParseAddress(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, err
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// MarshalJSON implements json.Marshaler.
func (a Address) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(a[:])
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHexJSON(data)
	if err != nil {
		return err
	}
	copy(a[:], b)
	return nil
}
