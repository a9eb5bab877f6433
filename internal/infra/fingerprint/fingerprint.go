package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Computer derives the content-addressed key for an asset: the SHA-256 of
// the raw content bytes, hex-encoded. Content is treated as opaque text and
// no normalization is applied, so verification succeeds only on the exact
// original bytes. Registration and verification must share one algorithm.
type Computer struct{}

func (Computer) Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
