package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

var (
	buildWatch    bool
	buildInterval time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build [data-dir]",
	Short: "Build and publish the vector index",
	Long: `Ingests every document under the data directory, chunks and embeds it,
and publishes a new index build. Documents that cannot be read are skipped
and listed in the build record.

The data directory defaults to the data_dir setting.

With --watch, the index is rebuilt whenever the corpus changes, and on
--interval if one is given, until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when the corpus changes")
	buildCmd.Flags().DurationVar(&buildInterval, "interval", 0, "also rebuild periodically (with --watch)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	dataDir, err := resolveDataDir(args)
	if err != nil {
		return err
	}

	if buildWatch {
		return watchBuild(cmd, dataDir)
	}

	cmd.Printf("Building index from %s...\n", dataDir)
	record, err := indexService.Build(commandContext(cmd), dataDir)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	printBuildRecord(cmd, record)
	return nil
}

func watchBuild(cmd *cobra.Command, dataDir string) error {
	if deps.WatchCorpus == nil || deps.NewScheduler == nil {
		return errors.New("watch mode not configured")
	}
	ctx := commandContext(cmd)

	triggers, err := deps.WatchCorpus(ctx, dataDir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dataDir, err)
	}

	scheduler := deps.NewScheduler(SchedulerOptions{
		DataDir:    dataDir,
		Interval:   buildInterval,
		Triggers:   triggers,
		RunAtStart: true,
		OnBuilt: func(record *domain.BuildRecord) {
			printBuildRecord(cmd, record)
		},
	})

	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", dataDir)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	status := scheduler.Status()
	cmd.Printf("Stopped after %d builds (%d failed).\n", status.Builds, status.Failures)
	return nil
}

func resolveDataDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if settingsService == nil {
		return "", errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	return settings.DataDir, nil
}

func printBuildRecord(cmd *cobra.Command, record *domain.BuildRecord) {
	cmd.Println(successStyle.Render("Published build " + record.ID))
	cmd.Printf("  Strategy:  %s\n", strategyLabel(record.Strategy, record.Exact))
	cmd.Printf("  Documents: %d\n", record.Documents)
	cmd.Printf("  Chunks:    %d\n", record.Chunks)
	cmd.Printf("  Model:     %s (%d dims)\n", record.Model, record.Dimension)
	cmd.Printf("  Duration:  %s\n", record.Duration.Round(time.Millisecond))
	if len(record.Skipped) > 0 {
		cmd.Println(warningStyle.Render(fmt.Sprintf("  Skipped %d documents:", len(record.Skipped))))
		for _, s := range record.Skipped {
			cmd.Printf("    %s: %s\n", s.Source, errorStyle.Render(s.Reason))
		}
	}
}

func strategyLabel(strategy domain.IndexStrategy, exact bool) string {
	if exact {
		return strategy.String() + " (exact)"
	}
	return strategy.String() + " (approximate)"
}
