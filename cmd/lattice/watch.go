package main

import (
	"context"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-validate a document whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		delay, _ := cmd.Flags().GetDuration("delay")

		tui.PrintBanner(cmd.OutOrStdout(), lattice.Version)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunWatch(sigCtx, cmd.OutOrStdout(), args[0], cli.WatchOptions{
			SectionsOnly: cfg.Editor.SectionsOnly,
			Delay:        delay,
			Logger:       logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("delay", 100*time.Millisecond, "Quiet period before a change is reported")
}
