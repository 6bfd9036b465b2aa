package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/pkg/cli"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	osArgs := os.Args[1:]
	traceFile := ""
	cpuprofileFile := ""
	heapFile := ""

	// Do an initial scan over the argument list. Everything after "--" belongs
	// to the program started by "esmkit run".
	argsEnd := 0
	for i, arg := range osArgs {
		if arg == "--" {
			argsEnd += copy(osArgs[argsEnd:], osArgs[i:])
			break
		}
		switch {
		case arg == "--version":
			fmt.Fprintf(os.Stdout, "%s\n", version)
			os.Exit(0)

		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		case strings.HasPrefix(arg, "--heap="):
			heapFile = arg[len("--heap="):]

		default:
			// Strip any arguments that were handled above
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Print help text when there are no arguments
	if len(osArgs) == 0 && logger.GetTerminalInfo(os.Stdin).IsTTY {
		osArgs = []string{"--help"}
	}

	// Capture the defer statements below so the "done" message comes last
	exitCode := 1
	func() {
		// To view a CPU trace, use "go tool trace [file]"
		if traceFile != "" {
			done := createTraceFile(osArgs, traceFile)
			if done == nil {
				return
			}
			defer done()
		}

		// To view a heap trace, use "go tool pprof [file]" and type "top"
		if heapFile != "" {
			done := createHeapFile(osArgs, heapFile)
			if done == nil {
				return
			}
			defer done()
		}

		// To view a CPU profile, drop the file into https://speedscope.app
		if cpuprofileFile != "" {
			done := createCpuprofileFile(osArgs, cpuprofileFile)
			if done == nil {
				return
			}
			defer done()
		}

		exitCode = cli.Run(osArgs)
	}()

	os.Exit(exitCode)
}
