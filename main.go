package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/tonblueprint/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if code := cmd.ExitCode(err, interrupted); code != 0 {
		os.Exit(code)
	}
}
