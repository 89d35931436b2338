package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user", "alice", "jwt_token", "abc", "Password", "hunter2", "dangling"})

	assert.Equal(t, []interface{}{
		"user", "alice",
		"jwt_token", "[REDACTED]",
		"Password", "[REDACTED]",
		"dangling",
	}, out)
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("hello", "key", 1)
	l.Sync()
}
