package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// PairKey derives the room key for two participants. Both sides compute
// the same key without a lookup because the ids are joined in sorted order.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
