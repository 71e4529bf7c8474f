package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/okian/pistes/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.New(ctx, os.Stdout, os.Stderr).Run(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Stdout.WriteString(ferr.Message + "\n")
			return
		}
		os.Stderr.WriteString("pistectl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
