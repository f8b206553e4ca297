package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillgate/pkg/engine"
	"github.com/jingkaihe/skillgate/pkg/presenter"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch skill directories and reload on changes",
	Long: `Watch the configured skill directories and atomically reload the
registry whenever skill files change. Outstanding activation tokens become
stale on every reload.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		debounceMs, _ := cmd.Flags().GetInt("debounce-ms")

		eng, source, config, err := setupEngine(ctx)
		if err != nil {
			presenter.Error(err, "failed to set up engine")
			os.Exit(1)
		}

		_, dirs, err := buildSource(config)
		if err != nil {
			presenter.Error(err, "failed to resolve skill directories")
			os.Exit(1)
		}

		presenter.Info(fmt.Sprintf("Watching %v (%d skills registered)", dirs, len(eng.List())))

		watcher := engine.NewWatcher(eng, source, dirs,
			engine.WithDebounce(time.Duration(debounceMs)*time.Millisecond))
		if err := watcher.Run(ctx); err != nil && err != context.Canceled {
			presenter.Error(err, "watcher stopped")
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().Int("debounce-ms", 500, "Debounce interval for reloads in milliseconds")
	rootCmd.AddCommand(watchCmd)
}
