package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-maintenance/internal/config"
)

// cli carries state shared by the commands.
type cli struct {
	cfgPath string
	cfg     *config.Config
	logger  *log.Logger
	out     io.Writer
	open    func(ctx context.Context) (*app, error)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "fleet-maintenance",
		Short:         "Maintenance recurrence and reminder service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg != nil {
				return nil
			}
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Logger, os.Stderr)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (yaml, json or toml)")

	root.AddCommand(
		newServeCmd(c),
		newCheckCmd(c),
		newSummaryCmd(c),
		newCompleteCmd(c),
		newSettingsCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *cli) app(ctx context.Context) (*app, error) {
	if c.open != nil {
		return c.open(ctx)
	}
	return openApp(ctx, c.cfg, c.logger)
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	c := &cli{out: os.Stdout}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
