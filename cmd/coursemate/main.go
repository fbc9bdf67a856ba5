// Command coursemate answers questions about course materials.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/cli"
)

// version is set by the linker.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetFactory(buildServices)

	// cobra prints the error.
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
