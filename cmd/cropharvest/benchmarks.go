package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/forest-guardian/cropharvest-cli/internal/dataset"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
	"github.com/forest-guardian/cropharvest-cli/internal/properties"
	"github.com/forest-guardian/cropharvest-cli/internal/regions"
	"github.com/spf13/cobra"
)

func newBenchmarksCmd(a *app) *cobra.Command {
	var (
		balance   bool
		manifests bool
	)

	cmd := &cobra.Command{
		Use:   "benchmarks [datapath]",
		Short: "Build the evaluation tasks and report their sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root(args)
			if err != nil {
				return err
			}

			arrays := features.NewGeoTIFFStore(filepath.Join(root, properties.ArraysDir))
			tests := features.NewGeoTIFFStore(filepath.Join(root, properties.TestFeaturesDir))
			l, err := labels.Load(root, arrays, labels.Options{Seed: a.cfg.Seed})
			if err != nil {
				return err
			}
			registry, err := regions.Default()
			if err != nil {
				return err
			}

			suite, err := dataset.BuildBenchmarks(l, tests, registry, balance)
			if err != nil {
				return err
			}

			for _, d := range suite {
				fmt.Printf("%s: %d samples, %d positive, %d negative\n", d, d.Len(), len(d.PositiveIndices()), len(d.NegativeIndices()))
				if manifests {
					if _, err := dataset.SaveManifest(filepath.Join(root, "manifests"), d); err != nil {
						return err
					}
				}
			}
			a.success(fmt.Sprintf("Built %d benchmark tasks from %s", len(suite), root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&balance, "balance", true, "sample other crops down to the number of non-crop negatives")
	cmd.Flags().BoolVar(&manifests, "manifests", false, "write {datapath}/manifests/{task}.csv")
	return cmd
}
