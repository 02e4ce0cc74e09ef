package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// Key derives the cache key for a request under a namespace.
//
// The request is serialised to msgpack (struct fields in declaration
// order, so equal requests produce equal bytes) and hashed with xxhash.
// The hash needs no cryptographic strength: keys only have to be stable
// across processes of the same build, and a collision merely serves a
// wrong-but-well-formed cached result whose decode namespace still
// matches. The key text is "<namespace>:<16 lowercase hex digits>".
func Key(namespace string, req itc.CalculationRequest) ([]byte, error) {
	normalised, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("fingerprint request: %w", err)
	}
	sum := xxhash.Sum64(normalised)
	return []byte(fmt.Sprintf("%s:%016x", namespace, sum)), nil
}
