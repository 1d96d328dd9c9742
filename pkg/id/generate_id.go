package id

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes is the entropy behind every public identifier; 16 random bytes
// encode to the 32-char lowercase hex the `hex32` validator expects.
const idBytes = 16

// NewID32 generates a public identifier for expenses, employees and
// companies: 32 lowercase hex characters, no separators or prefixes.
func NewID32() string {
	b := make([]byte, idBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
