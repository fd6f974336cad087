// Command adaptivity checks learner answers against adaptivity rules.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/adaptivity/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
