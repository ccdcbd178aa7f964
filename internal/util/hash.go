package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns the hex SHA-256 digest of text, used to key cached values by content.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
