// Package exitcode maps the errors returned by CLI commands to process exit
// codes.
package exitcode

import (
	"errors"

	"github.com/spf13/pflag"
)

const (
	// The command ran and reported at least one error
	Failure = 1

	// The command line itself was invalid
	Usage = 2
)

// Coder is an interface to control what value Get returns. Note that
// "*exec.ExitError" satisfies it, so the status of a child process that
// failed is passed through unchanged.
type Coder interface {
	error
	ExitCode() int
}

// Get gets the exit code associated with an error. Cases:
//
//	nil => 0
//	errors implementing Coder => value returned by ExitCode
//	pflag.ErrHelp => Usage
//	all other errors => Failure
func Get(err error) int {
	if err == nil {
		return 0
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	if errors.Is(err, pflag.ErrHelp) {
		return Usage
	}

	return Failure
}

// Set wraps an error in a Coder, setting its error code.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

var _ Coder = coder{}

type coder struct {
	error
	int
}

func (co coder) ExitCode() int {
	return co.int
}

func (co coder) Unwrap() error {
	return co.error
}
