// Package pagetoken provides opaque continuation token encoding/decoding.
//
// A token is the store's last-evaluated key serialized as JSON and encoded
// with URL-safe base64. Clients must treat it as opaque.
package pagetoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidToken is returned for tokens that do not decode to a store key.
var ErrInvalidToken = errors.New("invalid pagination token")

// Encode encodes a store key to an opaque token. An empty key yields "".
func Encode(key map[string]any) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	data, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("marshal key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes a token back into a store key. An empty token yields a nil
// key, meaning "start from the beginning".
func Decode(token string) (map[string]any, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		// Tokens minted by older clients used the standard alphabet.
		var stdErr error
		data, stdErr = base64.StdEncoding.DecodeString(token)
		if stdErr != nil {
			return nil, fmt.Errorf("%w: decode base64: %w", ErrInvalidToken, err)
		}
	}

	var key map[string]any
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: unmarshal key: %w", ErrInvalidToken, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidToken)
	}
	return key, nil
}
