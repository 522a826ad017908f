package main

import (
	"github.com/forest-guardian/cropharvest-cli/internal/download"
	"github.com/spf13/cobra"
)

func newDownloadCmd(a *app) *cobra.Command {
	var withTest bool

	cmd := &cobra.Command{
		Use:   "download [datapath]",
		Short: "Fetch the labels and feature archives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root(args)
			if err != nil {
				return err
			}
			if err := download.All(cmd.Context(), a.cfg, root, withTest); err != nil {
				return err
			}
			a.success("Downloaded CropHarvest data to " + root)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withTest, "test", false, "also fetch the test feature archive")
	return cmd
}
