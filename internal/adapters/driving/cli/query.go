package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

var (
	queryK        int
	queryCountry  string
	queryVisaType string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve passages relevant to a question",
	Long: `Embeds the question and returns the nearest chunks from the current
index build, with their source document and pages.

Use --country and --visa-type to restrict results to one jurisdiction.
Matching ignores case. A filter that matches nothing returns no results.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top-k", "k", 0, "number of chunks to return (default from settings)")
	queryCmd.Flags().StringVar(&queryCountry, "country", "", "only return chunks for this country")
	queryCmd.Flags().StringVar(&queryVisaType, "visa-type", "", "only return chunks for this visa type")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	ctx := commandContext(cmd)
	if err := loadIndex(ctx); err != nil {
		return err
	}

	filter := domain.Filter{Country: queryCountry, VisaType: queryVisaType}
	result, err := retrievalService.Retrieve(ctx, args[0], queryK, filter)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	outputQueryText(cmd, result, filter, terminalWidth())
	return nil
}

// loadIndex reads the current build before serving a one-shot command.
func loadIndex(ctx context.Context) error {
	if deps.LoadCurrent == nil {
		return nil
	}
	if err := deps.LoadCurrent(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.New("no index build published yet, run 'visarag build' first")
		}
		return fmt.Errorf("loading index: %w", err)
	}
	return nil
}

func outputQueryJSON(cmd *cobra.Command, result *domain.Retrieval) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, result *domain.Retrieval, filter domain.Filter, width int) {
	if len(result.Chunks) == 0 {
		if filter.IsZero() {
			cmd.Println("No results found.")
		} else {
			cmd.Printf("No results found for %s.\n", describeFilter(filter))
		}
		return
	}

	body := lipgloss.NewStyle().Width(width - 6).PaddingLeft(6)

	cmd.Println(titleStyle.Render("Results:"))
	cmd.Println()
	for i, c := range result.Chunks {
		heading := fmt.Sprintf("  [%d] %s", i+1, c.SourceDocument)
		cmd.Printf("%s %s\n", subtitleStyle.Render(heading), mutedStyle.Render(fmt.Sprintf("(%.4f)", c.Distance)))
		cmd.Println(mutedStyle.Render(fmt.Sprintf("      %s / %s, %s", c.Country, c.VisaType, pagesLabel(c.Pages))))
		cmd.Println(body.Render(c.Text))
		cmd.Println()
	}

	if !result.Exact {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("Served by an approximate %s index; close matches may be missed.", result.Strategy)))
	}
}

func describeFilter(filter domain.Filter) string {
	var parts []string
	if c := strings.TrimSpace(filter.Country); c != "" {
		parts = append(parts, "country "+c)
	}
	if v := strings.TrimSpace(filter.VisaType); v != "" {
		parts = append(parts, "visa type "+v)
	}
	return strings.Join(parts, " and ")
}

func pagesLabel(pages []int) string {
	if len(pages) == 0 {
		return "no pages"
	}
	labels := make([]string, len(pages))
	for i, p := range pages {
		labels[i] = strconv.Itoa(p)
	}
	if len(pages) == 1 {
		return "page " + labels[0]
	}
	return "pages " + strings.Join(labels, ", ")
}
