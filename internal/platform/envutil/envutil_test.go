package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsersFallBackOnGarbage(t *testing.T) {
	t.Setenv("AGENTY_TEST_INT", "nope")
	t.Setenv("AGENTY_TEST_FLOAT", "x")
	t.Setenv("AGENTY_TEST_BOOL", "maybe")
	t.Setenv("AGENTY_TEST_DUR", "soon")

	assert.Equal(t, 7, Int("AGENTY_TEST_INT", 7))
	assert.Equal(t, 0.2, Float("AGENTY_TEST_FLOAT", 0.2))
	assert.True(t, Bool("AGENTY_TEST_BOOL", true))
	assert.Equal(t, time.Second, Duration("AGENTY_TEST_DUR", time.Second))
}

func TestDurationAcceptsSecondsAndStrings(t *testing.T) {
	t.Setenv("AGENTY_TEST_DUR", "45")
	assert.Equal(t, 45*time.Second, Duration("AGENTY_TEST_DUR", 0))

	t.Setenv("AGENTY_TEST_DUR", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, Duration("AGENTY_TEST_DUR", 0))
}

func TestStringTrims(t *testing.T) {
	t.Setenv("AGENTY_TEST_STR", "  gemini  ")
	assert.Equal(t, "gemini", String("AGENTY_TEST_STR", "mock"))
	assert.Equal(t, "mock", String("AGENTY_TEST_UNSET_STR", "mock"))
}
