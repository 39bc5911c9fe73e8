package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateStepKnown(t *testing.T) {
	assert.Equal(t, StepMainMenu, ValidateStep("main_menu"))
	assert.Equal(t, StepConfirmation, ValidateStep("  CONFIRMATION "))
}

func TestValidateStepUnknownFallsBackToInitial(t *testing.T) {
	assert.Equal(t, InitialStep, ValidateStep("no_such_step"))
	assert.Equal(t, InitialStep, ValidateStep(""))
	assert.Equal(t, InitialStep, ValidateStep("main_menu; DROP TABLE"))
}

func TestChannelTTL(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, ChannelWhatsApp.TTL())
	assert.Equal(t, 24*time.Hour, ChannelWeb.TTL())
	assert.Equal(t, 24*time.Hour, ChannelAPI.TTL())
}

func TestChannelValid(t *testing.T) {
	assert.True(t, ChannelWeb.Valid())
	assert.True(t, ChannelWhatsApp.Valid())
	assert.False(t, Channel("sms").Valid())
}

func TestSessionIDFor(t *testing.T) {
	assert.Equal(t, "whatsapp:263771234567", SessionIDFor(ChannelWhatsApp, "263771234567"))
	assert.Equal(t, "web:user@example.com", SessionIDFor(ChannelWeb, "user@example.com"))
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "263771234567", SanitizeIdentifier("263 771 234 567"))
	assert.Equal(t, "user@example.com", SanitizeIdentifier("user@example.com"))
	assert.Equal(t, "abcDROPTABLE", SanitizeIdentifier("abc'; DROP TABLE"))
	assert.Equal(t, "", SanitizeIdentifier("!!!###"))
}

func TestSanitizeIdentifierTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	got := SanitizeIdentifier(long)
	assert.Len(t, got, 64)
}

func TestScrubControlChars(t *testing.T) {
	assert.Equal(t, "hello\nworld", ScrubControlChars("hel\x00lo\nworld\x07"))
	assert.Equal(t, "tab\tkept", ScrubControlChars("tab\tkept"))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*time.Minute)))
}
