// Package main provides the entry point for the smileys CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smileys/smileys/internal/app"
)

// Build information (set by ldflags during build)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	app.SetBuildInfo(version, buildTime, gitCommit)
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	deps, err := app.NewDependencies(app.BootstrapConfig(args, os.Stdout, os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	application, err := app.New(deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	runErr := application.Run(args)
	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
	}
	if runErr != nil {
		deps.UI.Error(context.Background(), "%v", runErr)
		return 1
	}
	return 0
}
