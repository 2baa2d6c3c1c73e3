package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/messages"
	"github.com/swiftvisa/visarag/internal/logger"
)

var tuiK int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch an interactive terminal interface over the current index build.

Type a question, optionally narrow it by country and visa type, and browse
the retrieved passages. With an answer model configured, press 'a' to ask
it about the passages on screen. A newly published build is picked up
without restarting.

Controls:
  tab      - Next field
  enter    - Retrieve / Read passage
  a        - Ask the answer model
  esc      - Back
  ?        - Help
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiK, "top-k", "k", 0, "number of passages per query (default from settings)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	ctx := commandContext(cmd)
	if err := loadIndex(ctx); err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{Retrieval: retrievalService, Answer: answerService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx).WithTopK(tuiK)

	// Log lines would tear the alternate screen.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if deps.WatchBuilds != nil && deps.LoadCurrent != nil {
		err := deps.WatchBuilds(ctx, func(string) {
			if err := deps.LoadCurrent(ctx); err != nil {
				p.Send(messages.ErrorOccurred{Err: fmt.Errorf("loading new build: %w", err)})
				return
			}
			m, err := retrievalService.Manifest()
			p.Send(messages.BuildLoaded{Manifest: m, Err: err})
		})
		if err != nil {
			logger.Warn("Hot reload disabled: %v", err)
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
