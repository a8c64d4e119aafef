package promptstyle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySystemIsIdempotent(t *testing.T) {
	once := ApplySystem("Generate insight cards.", "json")
	twice := ApplySystem(once, "json")

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, marker))
	assert.Contains(t, once, "single JSON value")
	assert.True(t, strings.HasSuffix(once, "Generate insight cards."))
}

func TestApplySystemEmpty(t *testing.T) {
	assert.Equal(t, "", ApplySystem("   ", "json"))
}
