package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestIsTrusted(t *testing.T) {
	checker := NewChecker([]string{"42", " @Admin ", "moderator", ""}, zaptest.NewLogger(t))

	tests := []struct {
		name     string
		userID   int64
		username string
		want     bool
	}{
		{"by id", 42, "", true},
		{"by username", 7, "admin", true},
		{"username with at and case", 7, "@ADMIN", true},
		{"plain username entry", 0, "Moderator", true},
		{"unknown", 7, "someone", false},
		{"anonymous", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsTrusted(tt.userID, tt.username))
		})
	}
}

func TestNilChecker(t *testing.T) {
	var checker *Checker
	assert.False(t, checker.IsTrusted(42, "admin"))
	assert.False(t, NewChecker(nil, nil).IsTrusted(42, "admin"))
}
