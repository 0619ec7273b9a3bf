// Package pdftotext extracts page text from PDF files by shelling out
// to the poppler pdftotext tool.
package pdftotext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// ErrPDFToolNotFound is returned when the pdftotext binary is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// minPageLength is the minimum number of characters a page must carry
// after trimming to count as extracted text. Scanned pages and blank
// separators fall below this.
const minPageLength = 50

// garbageProbe is how far into a page we look for raw PDF object syntax.
const garbageProbe = 100

// CommandRunner executes an external command and returns its combined output.
// It exists so tests can substitute the pdftotext invocation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor turns a PDF file into per-page text.
// It implements the ChunkExtractor port.
type Extractor struct {
	runner CommandRunner
}

var _ driven.ChunkExtractor = (*Extractor)(nil)

// New creates an extractor that invokes pdftotext directly.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns human-readable setup guidance.
func InstallInstructions() string {
	return `pdftotext is required for PDF extraction.

Install it via your package manager:
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}

// Extract runs pdftotext in layout mode and splits the output on form
// feeds, which pdftotext emits between pages. Pages that are too short
// or look like raw PDF object syntax are dropped.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	output, err := e.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed for %s: %w", path, err)
	}

	var pages []domain.Page
	for i, raw := range strings.Split(string(output), "\f") {
		if !validPage(raw) {
			continue
		}
		pages = append(pages, domain.Page{
			Number:  i + 1,
			Content: strings.TrimSpace(raw),
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", domain.ErrInvalidInput, path)
	}

	return pages, nil
}

// validPage rejects pages that carry no real text: too short, or
// containing raw PDF object markup near the start, which pdftotext
// produces for damaged files.
func validPage(raw string) bool {
	text := strings.TrimSpace(raw)
	if len(text) < minPageLength {
		return false
	}

	probe := text
	if len(probe) > garbageProbe {
		probe = probe[:garbageProbe]
	}
	if strings.HasPrefix(probe, "%PDF") || strings.Contains(probe, " 0 R ") {
		return false
	}

	return true
}
