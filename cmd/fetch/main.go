package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/candlefetch/internal/config"
	"github.com/rxtech-lab/candlefetch/internal/logger"
	"github.com/rxtech-lab/candlefetch/pkg/marketdata"
)

// fetchAction loads the configuration and runs one full acquisition.
func fetchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync()

	client, err := marketdata.NewClient(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return client.Run(ctx)
}

func main() {
	cmd := &cli.Command{
		Name:  "candlefetch",
		Usage: "Fetch full historical candles for a roster of stocks into one artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the yaml configuration file; defaults apply when omitted",
				Required: false,
			},
		},
		Action: fetchAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
