// Package pdf extracts per-page text from PDF files.
//
// Extraction is a two-step fallback. The pure-Go reader runs first; when it
// fails or finds no text, the poppler pdftotext tool is tried. Each outcome
// is logged so a corpus with scanned or malformed files can be diagnosed.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound is returned when pdftotext is needed but not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const toolName = "pdftotext"

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor reads PDF pages.
type Extractor struct {
	runner    CommandRunner
	readPages func(path string) ([]string, error)
	lookPath  func(file string) (string, error)
}

// New creates a PDF extractor using the system pdftotext as fallback.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF extractor with a custom fallback runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{
		runner:    runner,
		readPages: readPages,
		lookPath:  exec.LookPath,
	}
}

// Name identifies the extractor in logs.
func (e *Extractor) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns one page per PDF page, numbered from 1.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}

	texts, nativeErr := e.readPages(path)
	switch {
	case nativeErr == nil && hasText(texts):
		logger.Debug("pdf: %s: native reader extracted %d pages", path, len(texts))
		return toPages(texts), nil
	case nativeErr != nil:
		logger.Warn("pdf: %s: native reader failed (%v), trying %s", path, nativeErr, toolName)
	default:
		logger.Warn("pdf: %s: native reader found no text in %d pages, trying %s", path, len(texts), toolName)
	}

	fallback, toolErr := e.extractWithTool(ctx, path)
	if toolErr != nil {
		if nativeErr != nil {
			return nil, fmt.Errorf("extracting %s: %w", path, errors.Join(nativeErr, toolErr))
		}
		logger.Warn("pdf: %s: fallback unavailable (%v)", path, toolErr)
		return nil, fmt.Errorf("%w: %s", domain.ErrNoText, path)
	}
	if !hasText(fallback) {
		logger.Warn("pdf: %s: %s found no text either", path, toolName)
		return nil, fmt.Errorf("%w: %s", domain.ErrNoText, path)
	}

	logger.Info("pdf: %s: recovered %d pages with %s", path, len(fallback), toolName)
	return toPages(fallback), nil
}

func (e *Extractor) extractWithTool(ctx context.Context, path string) ([]string, error) {
	if _, err := e.lookPath(toolName); err != nil {
		return nil, ErrPDFToolNotFound
	}

	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", toolName, err)
	}

	// pdftotext terminates every page with a form feed.
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// readPages extracts text page by page with the pure-Go reader.
// The reader panics on some malformed files; that is reported as an error.
func readPages(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

func toPages(texts []string) []domain.Page {
	pages := make([]domain.Page, len(texts))
	for i, t := range texts {
		pages[i] = domain.Page{Number: i + 1, Text: t}
	}
	return pages
}

// CheckAvailable reports whether the pdftotext fallback is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install the pdftotext fallback.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
