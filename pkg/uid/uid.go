// Package uid generates identifiers for rooms, tickets and records.
package uid

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewToken returns a random hex token for room ids.
func NewToken() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// NewID returns a UUID string for persisted records.
func NewID() string {
	return uuid.NewString()
}
