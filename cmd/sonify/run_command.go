package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/observability"
)

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sonify the configured folders once and exit",
		Long: `Download the most recent complete MiniSEED files from each folder,
merge and normalize them, and write one audio file per folder.

Folders default to today's (UTC) folder of every configured station.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := observability.NewCLILogger(cfg, cmd.ErrOrStderr())
			metrics := observability.NewMetrics()
			p, cleanup := buildPipeline(cfg, logger, metrics)
			defer cleanup()

			if obs := newProgressObserver(cmd.ErrOrStderr()); obs != nil {
				p.SetObserver(obs)
			}

			report := p.RunOnce(cmd.Context(), cfg.ResolveFolders(domain.Now()))
			fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(report))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
