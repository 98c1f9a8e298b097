package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/simaogato/captable-backend/internal/cli"
)

func main() {
	// 1. Cancel in-flight database work on Ctrl+C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// 2. Run the command; the store is opened lazily by the first command that needs it
	app := cli.NewApp()
	err := cli.NewRootCmd(app).ExecuteContext(ctx)

	// 3. Release the store before exiting
	if closeErr := app.Close(); closeErr != nil {
		app.Logger.Error().Err(closeErr).Msg("failed to close store")
	}
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}
