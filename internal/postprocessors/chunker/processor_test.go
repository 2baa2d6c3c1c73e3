package chunker

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

func numberedWords(from, to int) string {
	words := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	return strings.Join(words, " ")
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.maxWords != DefaultMaxWords {
			t.Errorf("expected maxWords %d, got %d", DefaultMaxWords, p.maxWords)
		}
		if p.strideWords != DefaultStrideWords {
			t.Errorf("expected strideWords %d, got %d", DefaultStrideWords, p.strideWords)
		}
		if _, ok := p.segmenter.(SentenceSegmenter); !ok {
			t.Errorf("expected sentence segmenter, got %T", p.segmenter)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithMaxWords(500), WithStrideWords(100), WithMode(domain.ChunkModeWord))
		if p.maxWords != 500 || p.strideWords != 100 {
			t.Errorf("unexpected bounds %d/%d", p.maxWords, p.strideWords)
		}
		if _, ok := p.segmenter.(WordSegmenter); !ok {
			t.Errorf("expected word segmenter, got %T", p.segmenter)
		}
	})

	t.Run("stride exceeds max", func(t *testing.T) {
		p := New(WithMaxWords(100), WithStrideWords(150))
		if p.strideWords >= p.maxWords {
			t.Error("stride should be reduced when it reaches max words")
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithMaxWords(0), WithStrideWords(-1), WithSegmenter(nil))
		if p.maxWords != DefaultMaxWords || p.strideWords != DefaultStrideWords || p.segmenter == nil {
			t.Errorf("expected defaults, got %d/%d/%T", p.maxWords, p.strideWords, p.segmenter)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if name := New().Name(); name != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", name)
	}
}

func TestProcessor_Process_ThousandWordDocument(t *testing.T) {
	p := New(WithMaxWords(200), WithStrideWords(50), WithMode(domain.ChunkModeWord))
	doc := &domain.Document{
		Source:   "canada/study/permit.txt",
		Country:  "canada",
		VisaType: "study",
		Pages:    []domain.Page{{Number: 1, Text: numberedWords(0, 1000)}},
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bounds := [][2]int{{0, 200}, {150, 350}, {300, 500}, {450, 650}, {600, 800}, {750, 950}, {900, 1000}}
	if len(chunks) != len(bounds) {
		t.Fatalf("expected %d chunks, got %d", len(bounds), len(chunks))
	}
	for i, b := range bounds {
		if want := numberedWords(b[0], b[1]); chunks[i].Text != want {
			t.Errorf("chunk %d covers wrong words: starts %q", i, chunks[i].Text[:20])
		}
		if chunks[i].Position != i || chunks[i].ID != i {
			t.Errorf("chunk %d has position %d id %d", i, chunks[i].Position, chunks[i].ID)
		}
		if chunks[i].SourceDocument != doc.Source || chunks[i].Country != "canada" || chunks[i].VisaType != "study" {
			t.Errorf("chunk %d lost provenance: %+v", i, chunks[i])
		}
	}
}

func TestProcessor_Process_TracksPages(t *testing.T) {
	p := New(WithMaxWords(8), WithStrideWords(3))
	doc := &domain.Document{
		Source: "usa/work/h1b.pdf",
		Pages: []domain.Page{
			{Number: 1, Text: "One two three four. Five six."},
			{Number: 2, Text: ""},
			{Number: 3, Text: "Seven eight nine. Ten eleven twelve."},
		},
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "One two three four. Five six." || !reflect.DeepEqual(chunks[0].Pages, []int{1}) {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].Text != "Five six. Seven eight nine. Ten eleven twelve." || !reflect.DeepEqual(chunks[1].Pages, []int{1, 3}) {
		t.Errorf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestProcessor_Process_EmptyPages(t *testing.T) {
	doc := &domain.Document{Source: "empty.pdf", Pages: []domain.Page{{Number: 1, Text: "  "}}}

	chunks, err := New().Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_CoverageNoSentenceLost(t *testing.T) {
	var sentences []string
	for i := 0; i < 60; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence %d has %s.", i, strings.Repeat("word ", i%9)))
	}
	doc := &domain.Document{Source: "doc", Pages: []domain.Page{{Number: 1, Text: strings.Join(sentences, " ")}}}

	chunks, err := New(WithMaxWords(40), WithStrideWords(10)).Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, s := range (SentenceSegmenter{}).Segment(c.Text) {
			seen[s] = true
		}
	}
	for _, s := range (SentenceSegmenter{}).Segment(doc.Pages[0].Text) {
		if !seen[s] {
			t.Errorf("sentence %q missing from chunks", s)
		}
	}
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Document{}, nil)
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
