// Package cache stores fetched source texts under digest-derived keys
// with a time-to-live.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Key prefixes for the two source kinds.
const (
	PSLPrefix = "PSL_"
	RZDPrefix = "RZD_"
)

// Cache is the storage contract. Get reports absence through its second
// return value; an absent key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Key derives the cache key for a source URI: the kind prefix plus the
// hex digest of the lowercased URI.
func Key(prefix, uri string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(uri)))
	return prefix + hex.EncodeToString(digest[:])
}
