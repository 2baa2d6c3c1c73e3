package chunker

// Unit is one windowing unit, a sentence or a word, tagged with its page.
type Unit struct {
	Text  string
	Page  int
	Words int
}

// Span is a half-open range [Start, End) of unit indices forming one chunk.
type Span struct {
	Start int
	End   int
}

// Window groups units into overlapping spans.
//
// Units accumulate while the running word count stays at or below maxWords.
// When the next unit would overflow, the buffer closes and the next one is
// seeded with the shortest suffix of at least strideWords words that still
// leaves out one unit of the closed buffer. If seed plus the next unit would
// overflow, seed units are dropped from the front, so a unit longer than
// maxWords always ends up as a chunk of its own. The final partial buffer is
// always kept.
//
// Window is a pure function of its arguments.
func Window(units []Unit, maxWords, strideWords int) []Span {
	if len(units) == 0 {
		return nil
	}

	var spans []Span
	start, words := 0, 0
	for i, u := range units {
		if i > start && words+u.Words > maxWords {
			spans = append(spans, Span{Start: start, End: i})

			s, seed := i, 0
			for s > start+1 && seed < strideWords {
				s--
				seed += units[s].Words
			}
			for s < i && seed+u.Words > maxWords {
				seed -= units[s].Words
				s++
			}
			start, words = s, seed
		}
		words += u.Words
	}
	return append(spans, Span{Start: start, End: len(units)})
}
