// planlog extracts typed run records from planner logs and aggregates them
// into attribute tables.
//
// Usage:
//
//	planlog parse data/exp-eval            # parse every run.log below the directory
//	planlog parse --stdin < run.log         # print the record of one log as JSON
//	planlog report data/exp-eval --markdown
//	planlog formats
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
