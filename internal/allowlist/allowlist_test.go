package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tscircular/internal/core/config"
)

func TestIsAllowedExactMatch(t *testing.T) {
	f := New([]config.AllowedCycle{
		{Files: []string{"a.ts", "b.ts"}, Reason: "legacy"},
	})

	assert.True(t, f.IsAllowed([]string{"a.ts", "b.ts"}))
	assert.True(t, f.IsAllowed([]string{"b.ts", "a.ts"}))
}

func TestIsAllowedNoMatch(t *testing.T) {
	f := New([]config.AllowedCycle{
		{Files: []string{"a.ts", "b.ts"}},
	})

	assert.False(t, f.IsAllowed([]string{"a.ts", "c.ts"}))
	assert.False(t, f.IsAllowed([]string{"a.ts"}))
}

func TestIsAllowedEmptyAllowlist(t *testing.T) {
	f := New(nil)
	assert.False(t, f.IsAllowed([]string{"a.ts", "b.ts"}))
}
