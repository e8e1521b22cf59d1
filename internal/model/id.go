package model

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// NewID creates a secure random identifier. Stored identifiers carry no type
// prefix; API responses tag them (ws_, pn_, disc_, prog_) at shaping time.
func NewID() string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		// In a real application, we would handle this error better
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// TagID prefixes a stored identifier for API responses
func TagID(prefix, id string) string {
	return fmt.Sprintf("%s%s", prefix, id)
}

// TrimIDPrefix removes a wire prefix when present, so handlers accept both
// tagged and raw identifiers
func TrimIDPrefix(prefix, id string) string {
	return strings.TrimPrefix(id, prefix)
}
