package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/forest-guardian/cropharvest-cli/internal/notification"
	"github.com/forest-guardian/cropharvest-cli/internal/properties"
	"github.com/spf13/cobra"
)

func printBanner() {
	banner := figure.NewFigure("CropHarvest", "small", true)
	color.Cyan(banner.String())
	fmt.Println()
}

// app carries what every subcommand shares once the environment is read.
type app struct {
	cfg      properties.Config
	notifier *notification.Discord
}

// root resolves the dataset directory from the positional argument or CROPHARVEST_ROOT.
func (a *app) root(args []string) (string, error) {
	root := a.cfg.RootPath
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return "", fmt.Errorf("no data path given and CROPHARVEST_ROOT is unset")
	}
	return root, nil
}

func (a *app) success(message string) {
	color.Green(message)
	if err := a.notifier.SendSuccess(message); err != nil {
		color.Red("Failed to send notification: %s", err)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cropharvest",
		Short:         "Prepare CropHarvest labels and feature arrays",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			printBanner()
		},
	}
	cmd.AddCommand(newAugmentCmd(a), newBenchmarksCmd(a), newDownloadCmd(a))
	return cmd
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exiting.
func run() (code int) {
	properties.LoadEnv()
	cfg, err := properties.Load()
	if err != nil {
		color.Red("%s", err)
		return 1
	}
	a := &app{cfg: cfg, notifier: notification.NewDiscord(cfg)}

	defer func() {
		if r := recover(); r != nil {
			color.Red("PANIC: %v", r)
			message := fmt.Sprintf("panic: %v\n\nStack trace:\n%s", r, debug.Stack())
			if err := a.notifier.SendError(message); err != nil {
				color.Red("Failed to send notification: %s", err)
			}
			code = 2
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		color.Red("Error: %s", err)
		if err := a.notifier.SendError(err.Error()); err != nil {
			color.Red("Failed to send notification: %s", err)
		}
		return 1
	}
	return 0
}
