package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Prompt template placeholders.
const (
	PlaceholderContext  = "{{context}}"
	PlaceholderQuestion = "{{question}}"
)

// Answer is a generated response grounded on retrieved chunks.
type Answer struct {
	// Query is the question as asked.
	Query string `json:"query"`

	// Text is the model output.
	Text string `json:"text"`

	// Model names the model that produced Text.
	Model string `json:"model"`

	// Retrieval holds the chunks the answer was grounded on.
	Retrieval Retrieval `json:"retrieval"`
}

// BuildPrompt fills template with the question and the numbered chunks.
// A template missing the context placeholder gets the context appended.
func BuildPrompt(template, question string, chunks []ScoredChunk) string {
	context := FormatContext(chunks)
	if !strings.Contains(template, PlaceholderContext) {
		template += "\n\nCONTEXT:\n" + PlaceholderContext
	}
	if !strings.Contains(template, PlaceholderQuestion) {
		template += "\n\nUSER QUESTION:\n" + PlaceholderQuestion
	}
	return strings.NewReplacer(
		PlaceholderContext, context,
		PlaceholderQuestion, strings.TrimSpace(question),
	).Replace(template)
}

// FormatContext renders chunks as numbered passages with provenance.
func FormatContext(chunks []ScoredChunk) string {
	if len(chunks) == 0 {
		return "(no matching passages)"
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Chunk %d [%s / %s, %s%s]:\n%s",
			i+1, c.Country, c.VisaType, c.SourceDocument, pageSuffix(c.Pages), strings.TrimSpace(c.Text))
	}
	return b.String()
}

func pageSuffix(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return " p." + strings.Join(parts, ",")
}
