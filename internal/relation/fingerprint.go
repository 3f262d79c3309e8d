package relation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint identifies one relationship query for caching. Logically
// identical queries always share a fingerprint regardless of the order their
// parameters were supplied in.
type Fingerprint string

// NewFingerprint builds the fingerprint for a query from its operation kind,
// subject identifier, and filter parameters. Parameters are key-sorted before
// hashing so map iteration order never leaks into the key.
func NewFingerprint(kind, subject string, params map[string]string) Fingerprint {
	parts := []string{kind, subject}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	// Truncate to 16 bytes for shorter keys (still 128-bit).
	return Fingerprint("rel:" + hex.EncodeToString(hash[:16]))
}
