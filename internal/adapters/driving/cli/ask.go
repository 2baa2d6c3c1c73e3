package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

var (
	askK          int
	askCountry    string
	askVisaType   string
	askJSON       bool
	askPromptOnly bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer an eligibility question from the policy corpus",
	Long: `Retrieves the passages most relevant to the question and has the
configured answer model assess eligibility from them.

Configure a model first:
  visarag settings set llm.provider ollama

Use --prompt-only to print the assembled prompt without calling a model.
Prompt templates live in ~/.visarag/prompts and can be edited.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of chunks to ground on (default from settings)")
	askCmd.Flags().StringVar(&askCountry, "country", "", "only use chunks for this country")
	askCmd.Flags().StringVar(&askVisaType, "visa-type", "", "only use chunks for this visa type")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askPromptOnly, "prompt-only", false, "print the prompt instead of calling the model")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}
	ctx := commandContext(cmd)
	if err := loadIndex(ctx); err != nil {
		return err
	}

	filter := domain.Filter{Country: askCountry, VisaType: askVisaType}

	if askPromptOnly {
		prompt, _, err := answerService.Prompt(ctx, args[0], askK, filter)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		cmd.Println(prompt)
		return nil
	}

	if !answerService.Available() {
		return errors.New("no answer model configured, run 'visarag settings set llm.provider <ollama|openai|anthropic>' " +
			"or use --prompt-only")
	}

	answer, err := answerService.Ask(ctx, args[0], askK, filter)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputAnswerText(cmd, answer, terminalWidth())
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer, width int) {
	body := lipgloss.NewStyle().Width(width - 2).PaddingLeft(2)

	cmd.Println(titleStyle.Render("Answer:"))
	cmd.Println()
	cmd.Println(body.Render(answer.Text))
	cmd.Println()

	if len(answer.Retrieval.Chunks) == 0 {
		cmd.Println(warningStyle.Render("No passages matched; the answer is not grounded on the corpus."))
	} else {
		cmd.Println(subtitleStyle.Render("Sources:"))
		for i, c := range answer.Retrieval.Chunks {
			cmd.Printf("  [%d] %s %s\n", i+1, c.SourceDocument,
				mutedStyle.Render(fmt.Sprintf("(%s / %s, %s)", c.Country, c.VisaType, pagesLabel(c.Pages))))
		}
	}
	cmd.Println()
	cmd.Println(mutedStyle.Render(fmt.Sprintf("Model %s, build %s", answer.Model, answer.Retrieval.BuildID)))
}
