package session

import (
	"crypto/rand"
	"strings"
	"time"
)

// ReferenceCode maps a short human-shareable code to a session so a user
// can resume or cross-link channels.
type ReferenceCode struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	// CodeTTL is the lifetime of a freshly issued reference code.
	CodeTTL = 30 * 24 * time.Hour
	// CodeExtendWindow is how close to expiry a reused code gets extended.
	CodeExtendWindow = 5 * 24 * time.Hour

	codeLength = 6
	// Ambiguous characters (0/O, 1/I) are excluded; codes are read aloud.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode produces a new user-typable reference code.
func GenerateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in a bad state; a
		// time-seeded fallback would weaken the code space silently.
		panic(err)
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String()
}

// NormalizeCode folds user input into the stored code form.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Expired reports whether the code is past its TTL.
func (c *ReferenceCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NearExpiry reports whether the code is within the extension window.
func (c *ReferenceCode) NearExpiry(now time.Time) bool {
	return c.ExpiresAt.Sub(now) < CodeExtendWindow
}
