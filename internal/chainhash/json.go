// Copyright 2024 The go-equa Authors

package chainhash

import (
	"encoding/hex"
	"encoding/json"
)

func marshalHexJSON(b []byte) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func unmarshalHexJSON(data []byte) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return decodeHex(s)
}
