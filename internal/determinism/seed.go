// Package determinism derives stable seeds so identical inputs produce
// identical provider requests.
package determinism

import (
	"crypto/sha256"
	"encoding/binary"
)

// SeedFromContent derives a deterministic seed from the reviewed
// content (diff text or snippet). The high bit is masked off so the
// value fits APIs that take signed 64-bit seeds.
func SeedFromContent(content string) int64 {
	hash := sha256.Sum256([]byte(content))
	seed := binary.BigEndian.Uint64(hash[:8])
	return int64(seed & 0x7FFFFFFFFFFFFFFF)
}
