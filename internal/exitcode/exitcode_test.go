package exitcode_test

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"testing"

	"github.com/esmkit/esmkit/internal/exitcode"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	base := exitcode.Set(errors.New(""), 4)
	wrapped := fmt.Errorf("wrapping: %w", base)

	testCases := map[string]struct {
		error
		int
	}{
		"nil":     {nil, 0},
		"default": {errors.New(""), exitcode.Failure},
		"help":    {pflag.ErrHelp, exitcode.Usage},
		"set":     {exitcode.Set(errors.New(""), 3), 3},
		"wrapped": {wrapped, 4},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.int, exitcode.Get(tc.error), "%v", tc.error)
		})
	}
}

func TestGetChildProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	err := exec.Command("sh", "-c", "exit 7").Run()
	require.Error(t, err)
	assert.Equal(t, 7, exitcode.Get(fmt.Errorf("node: %w", err)))
}

func TestSet(t *testing.T) {
	t.Run("same-message", func(t *testing.T) {
		err := errors.New("hello")
		assert.Equal(t, err.Error(), exitcode.Set(err, 2).Error())
	})
	t.Run("keep-chain", func(t *testing.T) {
		err := errors.New("hello")
		assert.ErrorIs(t, exitcode.Set(err, 3), err)
	})
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, exitcode.Set(nil, 3))
	})
}
