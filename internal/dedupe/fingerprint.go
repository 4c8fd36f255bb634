package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint hashes the canonical parts of a submission payload. Two
// submissions with the same idempotency key must produce the same
// fingerprint to be treated as retries of one attempt.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
