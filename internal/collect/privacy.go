package collect

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserAgent computes the privacy fingerprint stored in place of the raw
// user-agent: sha256, hex-encoded, truncated to 16 characters.
func HashUserAgent(userAgent string) string {
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:16]
}
