package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/internal/cli"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(recorder.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(recorder.ExitCodeForError(err))
	}
}
