package chunker

import (
	"strings"
	"unicode"
)

// Segmenter splits normalised text into windowing units.
type Segmenter interface {
	Segment(text string) []string
}

// WordSegmenter splits on whitespace.
type WordSegmenter struct{}

// Segment returns the whitespace-separated words of text.
func (WordSegmenter) Segment(text string) []string {
	return strings.Fields(text)
}

// SentenceSegmenter splits after sentence terminators followed by whitespace.
// Common abbreviations found in immigration guidance do not end a sentence.
type SentenceSegmenter struct{}

var abbreviations = map[string]bool{
	"e.g.": true, "i.e.": true, "vs.": true, "approx.": true,
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "st.": true,
	"art.": true, "sec.": true, "para.": true, "ref.": true,
	"u.s.": true, "u.k.": true, "u.a.e.": true, "jan.": true, "feb.": true,
	"aug.": true, "sept.": true, "oct.": true, "nov.": true, "dec.": true,
}

// numbered abbreviations only hold before a number, as in "No. 5".
var numbered = map[string]bool{"no.": true, "nos.": true}

// Segment returns the sentences of text with line breaks folded to spaces.
// Trailing text without a terminator is returned as the last sentence.
func (SentenceSegmenter) Segment(text string) []string {
	words := strings.Fields(text)
	var sentences []string
	var current []string
	for i, w := range words {
		current = append(current, w)
		next := ""
		if i+1 < len(words) {
			next = words[i+1]
		}
		if endsSentence(w, next) {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

func endsSentence(word, next string) bool {
	trimmed := strings.TrimRightFunc(word, func(r rune) bool {
		return strings.ContainsRune(`"')]}»”’`, r)
	})
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	if last == '.' {
		lower := strings.ToLower(trimmed)
		if abbreviations[lower] {
			return false
		}
		if numbered[lower] && trimmed == word && startsWithDigit(next) {
			return false
		}
		// Single initials such as "J." in names.
		if body := []rune(strings.TrimSuffix(trimmed, ".")); len(body) == 1 && unicode.IsUpper(body[0]) {
			return false
		}
	}
	return true
}

func startsWithDigit(word string) bool {
	return word != "" && unicode.IsDigit([]rune(word)[0])
}
