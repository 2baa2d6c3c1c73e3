// Package docx extracts pages from Word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents. Explicit page breaks and the
// renderer's last page break markers start a new page.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor in logs.
func (e *Extractor) Name() string {
	return "docx"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads word/document.xml and returns its pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %v", domain.ErrInvalidInput, path, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading document.xml: %w", err)
		}
		return parseDocumentXML(content)
	}
	return nil, fmt.Errorf("%w: %s has no word/document.xml", domain.ErrNoText, path)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Breaks        []brk      `xml:"br"`
	RenderedBreak []struct{} `xml:"lastRenderedPageBreak"`
	Text          []string   `xml:"t"`
}

type brk struct {
	Type string `xml:"type,attr"`
}

func (r run) breaksPage() bool {
	if len(r.RenderedBreak) > 0 {
		return true
	}
	for _, b := range r.Breaks {
		if b.Type == "page" {
			return true
		}
	}
	return false
}

// parseDocumentXML returns paragraphs joined by newlines, split into pages
// at page breaks. A break inside a run starts the page before that run's text.
func parseDocumentXML(content []byte) ([]domain.Page, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing document.xml: %v", domain.ErrInvalidInput, err)
	}

	var pages []domain.Page
	var current []string
	var line strings.Builder
	flush := func() {
		pages = append(pages, domain.Page{
			Number: len(pages) + 1,
			Text:   strings.TrimSpace(strings.Join(current, "\n")),
		})
		current = nil
	}

	for _, para := range doc.Body.Paragraphs {
		line.Reset()
		for _, r := range para.Runs {
			if r.breaksPage() && (len(current) > 0 || line.Len() > 0) {
				if line.Len() > 0 {
					current = append(current, line.String())
					line.Reset()
				}
				flush()
			}
			for _, t := range r.Text {
				line.WriteString(t)
			}
		}
		current = append(current, line.String())
	}
	flush()
	return pages, nil
}
