package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current index build and configuration",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(titleStyle.Render("visarag status"))
	cmd.Println()
	cmd.Printf("  Data dir:  %s\n", settings.DataDir)
	cmd.Printf("  Embedding: %s, %s\n", settings.Embedding.Provider.Description(), settings.Embedding.Model)
	cmd.Printf("  Strategy:  %s\n", settings.Index.Strategy.Description())
	if settings.LLM.IsConfigured() {
		cmd.Printf("  Answers:   %s, %s\n", settings.LLM.Provider.Description(), settings.LLM.Model)
	} else {
		cmd.Printf("  Answers:   not configured\n")
	}
	cmd.Println()

	manifest, err := currentManifest(cmd)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrIndexUnavailable):
		cmd.Println(warningStyle.Render("No index build published. Run 'visarag build'."))
	case err != nil:
		cmd.Println(errorStyle.Render(fmt.Sprintf("Current build unreadable: %v", err)))
	default:
		cmd.Println(subtitleStyle.Render("[Current build]"))
		cmd.Printf("  ID:        %s\n", manifest.ID)
		cmd.Printf("  Created:   %s\n", manifest.CreatedAt.Local().Format(time.DateTime))
		cmd.Printf("  Strategy:  %s\n", strategyLabel(manifest.Strategy, manifest.Exact))
		cmd.Printf("  Chunks:    %d from %d documents\n", manifest.Chunks, manifest.Documents)
		cmd.Printf("  Model:     %s (%d dims)\n", manifest.Model, manifest.Dimension)
		if manifest.Model != settings.Embedding.Model {
			cmd.Println(warningStyle.Render("  The configured model differs from the build's. Rebuild before querying."))
		}
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'visarag settings' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func currentManifest(cmd *cobra.Command) (*domain.BuildManifest, error) {
	if retrievalService == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if deps.LoadCurrent != nil {
		if err := deps.LoadCurrent(commandContext(cmd)); err != nil {
			return nil, err
		}
	}
	return retrievalService.Manifest()
}
