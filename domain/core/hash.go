package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Hash represents a content digest used for cache keys
type Hash string

// NewHash creates a hash from data
func NewHash(data []byte) Hash {
	return Hash(fmt.Sprintf("%016x", xxhash.Sum64(data)))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// SignatureOf serializes v deterministically and hashes it. Struct fields
// keep declaration order and map keys are sorted by the encoder, so two
// equal filter values always produce the same signature.
func SignatureOf(v interface{}) (Hash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize signature input: %w", err)
	}
	return NewHash(data), nil
}

// ComputeParamsHash hashes a flat parameter map independent of insertion order
func ComputeParamsHash(params map[string]string) Hash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(params[key])
		data.WriteByte('|')
	}
	return NewHash([]byte(data.String()))
}
