package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	old := "a\nb\nc\nd\ne\nf\ng"
	new := "a\nb\nc\nD\ne\nf\ng"

	assert.Equal(t, "--- x.js\n+++ x.js\n@@\n c\n-d\n+D\n e\n", Diff("x.js", old, new, 1, false))
	assert.Equal(t, "--- x.js\n+++ x.js\n a\n b\n c\n-d\n+D\n e\n f\n g\n", Diff("x.js", old, new, 5, false))
}

func TestDiffUnchanged(t *testing.T) {
	assert.Empty(t, Diff("x.js", "same\n", "same\n", 3, false))
}

func TestDiffEverythingChanged(t *testing.T) {
	assert.Equal(t, "--- x.js\n+++ x.js\n-a\n+b\n", Diff("x.js", "a", "b", 0, false))
}
