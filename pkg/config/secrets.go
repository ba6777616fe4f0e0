package config

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSecret returns a fresh 32-byte hex secret for webhook verification.
func NewSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// RedactSecret hides all but the last four characters of a secret.
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "***"
	}
	return "***" + secret[len(secret)-4:]
}
