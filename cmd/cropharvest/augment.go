package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/forest-guardian/cropharvest-cli/internal/augment"
	"github.com/forest-guardian/cropharvest-cli/internal/bands"
	"github.com/forest-guardian/cropharvest-cli/internal/features"
	"github.com/forest-guardian/cropharvest-cli/internal/labels"
	"github.com/forest-guardian/cropharvest-cli/internal/ledger"
	"github.com/forest-guardian/cropharvest-cli/internal/properties"
	"github.com/spf13/cobra"
)

func newAugmentCmd(a *app) *cobra.Command {
	var (
		indexes      []string
		ledgerPath   string
		skipRecorded bool
	)

	cmd := &cobra.Command{
		Use:   "augment [datapath]",
		Short: "Append vegetation indexes to every stored feature array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.root(args)
			if err != nil {
				return err
			}
			if skipRecorded && ledgerPath == "" {
				ledgerPath = filepath.Join(root, "augment.db")
			}

			store := features.NewGeoTIFFStore(filepath.Join(root, properties.ArraysDir))
			l, err := labels.Load(root, store, labels.Options{Seed: a.cfg.Seed})
			if err != nil {
				return err
			}

			opts := augment.Options{
				Indexes:      indexes,
				Params:       bands.Params{SoilFactor: a.cfg.SoilFactor},
				SkipRecorded: skipRecorded,
			}
			var led *ledger.Ledger
			if ledgerPath != "" {
				led, err = ledger.Open(ledgerPath)
				if err != nil {
					return err
				}
				defer led.Close()
				opts.Recorder = led
			}

			result, err := augment.Run(l, store, opts)
			if err != nil {
				return err
			}
			if err := reportAugment(store, led, result); err != nil {
				return err
			}
			a.success(fmt.Sprintf("Added %v for %d labels!", indexes, result.Augmented))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&indexes, "indices", bands.DefaultIndexes, "vegetation indexes to append")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "sqlite file recording rewritten arrays")
	cmd.Flags().BoolVar(&skipRecorded, "skip-recorded", false, "skip arrays already listed in the ledger (defaults to {datapath}/augment.db)")
	return cmd
}

// reportAugment prints what a run left out. With a ledger, skipped arrays that an earlier
// run rewrote are told apart from arrays that were never raw.
func reportAugment(store features.Store, led *ledger.Ledger, result augment.Result) error {
	if result.Missing > 0 {
		color.Yellow("%d labels have no stored array", result.Missing)
	}
	if result.Skipped > 0 {
		color.Yellow("%d arrays already recorded in the ledger were skipped", result.Skipped)
	}
	for _, id := range result.Mismatched {
		if led == nil {
			color.Yellow("Skipped %s: unexpected array shape", store.Path(id))
			continue
		}
		entry, ok, err := led.Get(id)
		if err != nil {
			return err
		}
		if ok {
			color.Yellow("Skipped %s: already augmented on %s to %d channels", store.Path(id), entry.AugmentedAt.Format("2006-01-02 15:04"), entry.Channels)
		} else {
			color.Yellow("Skipped %s: unexpected array shape", store.Path(id))
		}
	}
	if led != nil {
		n, err := led.Count()
		if err != nil {
			return err
		}
		fmt.Printf("Ledger lists %d augmented arrays.\n", n)
	}
	return nil
}
