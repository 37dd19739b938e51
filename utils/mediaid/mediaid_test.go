package mediaid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New()
	assert.True(t, strings.HasPrefix(id, "med_"))
	assert.True(t, IsValid(id))
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid("jan_01hqv8x9k2"))
	assert.False(t, IsValid("med_not-a-ulid"))
	assert.False(t, IsValid(""))
}
