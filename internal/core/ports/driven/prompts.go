package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptEligibility answers an eligibility question from retrieved passages.
	// The template uses the {{context}} and {{question}} placeholders.
	PromptEligibility = "eligibility"

	// PromptSystem is the system instruction sent with every answer request.
	// It has no placeholders.
	PromptSystem = "system"
)

// DefaultPrompt returns the built-in template for a well-known prompt name.
func DefaultPrompt(name string) (string, bool) {
	switch name {
	case PromptEligibility:
		return defaultEligibilityPrompt, true
	case PromptSystem:
		return defaultSystemPrompt, true
	default:
		return "", false
	}
}

const defaultSystemPrompt = `You are a senior immigration and visa adjudication officer with expertise in U.S., Canada, U.K., and Schengen immigration law.
Answer with clarity and cite the numbered chunks you rely on.`

//nolint:lll // Prompt content is long and should not be wrapped.
const defaultEligibilityPrompt = `Assess the applicant's eligibility using the retrieved policy chunks below as primary evidence.
Where the chunks are silent, apply the standard published rules for that visa and say that you did so.

OUTPUT FORMAT

ELIGIBILITY: Yes / No / Partially

REASONS:
- Reason 1 (cite chunk numbers)
- Reason 2
- Reason 3

FINAL DECISION:
A two to three line determination.

CONFIDENCE SCORE:
A percentage from 0 to 100 based on how directly the chunks address the question.

CONTEXT:
---------------------------------------
{{context}}
---------------------------------------

USER QUESTION:
{{question}}

Provide the final decision below:`
