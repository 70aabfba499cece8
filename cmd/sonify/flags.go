package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/hydrophone-sonify/internal/config"
	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

// runFlags are command line overrides for the environment configuration.
type runFlags struct {
	numFiles     int
	maxWorkers   int
	exportFormat string
	outputDir    string
	folders      []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.numFiles, "num-files", "n", 4, "Number of files to process per folder (NUM_FILES)")
	cmd.Flags().IntVarP(&f.maxWorkers, "max-workers", "w", 8, "Number of parallel downloads (MAX_WORKERS)")
	cmd.Flags().StringVarP(&f.exportFormat, "export-format", "f", "wav", "Export format: wav or mp3 (EXPORT_FORMAT)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "sonifications", "Directory for audio files (OUTPUT_DIR)")
	cmd.Flags().StringSliceVar(&f.folders, "folder", nil, "Folder URL to process, repeatable; replaces the configured stations")
}

// loadConfig reads the environment and applies the flags the user set.
func (f *runFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("num-files") {
		cfg.NumFiles = f.numFiles
	}
	if flags.Changed("max-workers") {
		cfg.MaxWorkers = f.maxWorkers
	}
	if flags.Changed("export-format") {
		format, err := domain.ParseFormat(f.exportFormat)
		if err != nil {
			return nil, err
		}
		cfg.ExportFormat = format
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("folder") {
		cfg.Folders = f.folders
		cfg.BaseURLs = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
