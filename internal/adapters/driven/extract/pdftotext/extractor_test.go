package pdftotext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))
	return path
}

func pageText(label string) string {
	return label + " " + strings.Repeat("tariff determination text ", 4)
}

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.IsType(t, &Extractor{}, extractor)
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("test output")}
	extractor := NewWithRunner(runner)
	require.NotNil(t, extractor)
	assert.Equal(t, runner, extractor.runner)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Error(t, ErrPDFToolNotFound)
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestExtract_EmptyPath(t *testing.T) {
	extractor := NewWithRunner(&mockRunner{})

	pages, err := extractor.Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, pages)
}

func TestExtract_MissingFile(t *testing.T) {
	extractor := NewWithRunner(&mockRunner{})

	pages, err := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_RunnerError(t *testing.T) {
	extractor := NewWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, pages)
}

func TestExtract_SplitsPagesOnFormFeed(t *testing.T) {
	output := pageText("page one") + "\f" + pageText("page two")
	extractor := NewWithRunner(&mockRunner{output: []byte(output)})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)
	assert.True(t, strings.HasPrefix(pages[0].Content, "page one"))
	assert.True(t, strings.HasPrefix(pages[1].Content, "page two"))
}

func TestExtract_DropsShortPages(t *testing.T) {
	output := "tiny\f" + pageText("real page")
	extractor := NewWithRunner(&mockRunner{output: []byte(output)})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	// Page numbering reflects position in the document, not in the result.
	assert.Equal(t, 2, pages[0].Number)
}

func TestExtract_DropsGarbagePages(t *testing.T) {
	garbage := "%PDF-1.4 " + strings.Repeat("x", 100)
	objectRefs := "12 0 R 14 0 R " + strings.Repeat("y", 100)
	output := garbage + "\f" + objectRefs + "\f" + pageText("clean page")
	extractor := NewWithRunner(&mockRunner{output: []byte(output)})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.True(t, strings.HasPrefix(pages[0].Content, "clean page"))
}

func TestExtract_GarbageBeyondProbeIgnored(t *testing.T) {
	// Object syntax deep in the page does not disqualify it.
	output := strings.Repeat("genuine extracted text ", 10) + " 12 0 R "
	extractor := NewWithRunner(&mockRunner{output: []byte(output)})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestExtract_NoValidPages(t *testing.T) {
	extractor := NewWithRunner(&mockRunner{output: []byte("   \f  \f ")})

	pages, err := extractor.Extract(context.Background(), writeTestPDF(t))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, pages)
}

// Integration test - only runs if pdftotext is available.
func TestExtract_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	// This test would require a real PDF file.
	// For CI, we rely on the mock tests above.
	t.Skip("integration test requires sample PDF file")
}
