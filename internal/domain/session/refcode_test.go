package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCodeShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected char %q", c)
		}
		seen[code] = struct{}{}
	}
	// 50 draws from a 32^6 space should not all collide.
	assert.Greater(t, len(seen), 1)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB2CD3", NormalizeCode("  ab2cd3 "))
}

func TestReferenceCodeExpiryWindows(t *testing.T) {
	now := time.Now()
	c := &ReferenceCode{ExpiresAt: now.Add(10 * 24 * time.Hour)}
	assert.False(t, c.Expired(now))
	assert.False(t, c.NearExpiry(now))

	c.ExpiresAt = now.Add(2 * 24 * time.Hour)
	assert.False(t, c.Expired(now))
	assert.True(t, c.NearExpiry(now))

	c.ExpiresAt = now.Add(-time.Hour)
	assert.True(t, c.Expired(now))
}
