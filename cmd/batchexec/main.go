package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aryankumar/batchexec/internal/cli"
	"github.com/aryankumar/batchexec/internal/util"
)

func main() {
	// First SIGINT/SIGTERM cancels ctx, a second one exits immediately
	ctx, stop := util.SetupSignalHandler(context.Background())
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", util.FriendlyError(err))
		stop()
		os.Exit(1)
	}
}
