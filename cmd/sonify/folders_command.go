package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
)

func newFoldersCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Print the folders a run would process today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			folders := cfg.ResolveFolders(domain.Now())

			rows := make([][]string, 0, len(folders))
			for _, f := range folders {
				rows = append(rows, []string{f.Info.FolderPart(), f.URL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{header: "Name"}, {header: "URL"}}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&flags.folders, "folder", nil, "Folder URL, repeatable; replaces the configured stations")
	return cmd
}
