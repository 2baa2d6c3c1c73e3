package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

var (
	buildsLimit int
	buildsJSON  bool
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List recent index builds",
	Long:  `Lists recent index builds, newest first, with the documents each one skipped.`,
	Args:  cobra.NoArgs,
	RunE:  runBuilds,
}

func init() {
	buildsCmd.Flags().IntVarP(&buildsLimit, "limit", "n", 10, "maximum number of builds")
	buildsCmd.Flags().BoolVar(&buildsJSON, "json", false, "output builds as JSON")
	rootCmd.AddCommand(buildsCmd)
}

func runBuilds(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	records, err := indexService.History(commandContext(cmd), buildsLimit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	if buildsJSON {
		if records == nil {
			records = []domain.BuildRecord{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal builds: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No builds yet.")
		return nil
	}

	current := ""
	if m, err := currentManifest(cmd); err == nil {
		current = m.ID
	}

	for i := range records {
		r := &records[i]
		marker := " "
		if r.ID == current {
			marker = "*"
		}
		cmd.Printf("%s %s  %s  %-6s %6d chunks %4d docs",
			marker, r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Strategy, r.Chunks, r.Documents)
		if len(r.Skipped) > 0 {
			cmd.Print(warningStyle.Render(fmt.Sprintf("  %d skipped", len(r.Skipped))))
		}
		cmd.Println()
	}
	return nil
}
