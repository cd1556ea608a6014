package pdf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	args   []string
	input  []byte
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	if len(args) >= 2 {
		m.input, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func newTestNormaliser(runner CommandRunner) *Normaliser {
	n := NewWithRunner(runner)
	n.lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }
	return n
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/pdf"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Skilled Worker visa\n\nYou must be paid £38,700.\f\nPage two.\f")}
	n := newTestNormaliser(runner)

	raw := &domain.RawDocument{
		URI:      "/corpus/skilled_worker.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}

	doc, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "skilled_worker.pdf", doc.Source)
	assert.Equal(t, "Skilled Worker visa", doc.Title)
	assert.Contains(t, doc.Content, "You must be paid £38,700.")
	assert.Equal(t, "pdf", doc.Metadata["format"])
	assert.Equal(t, 2, doc.Metadata["pages"])

	assert.Equal(t, []byte("%PDF-1.4 fake pdf content"), runner.input)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
}

func TestNormalise_RunnerError(t *testing.T) {
	n := newTestNormaliser(&mockRunner{err: errors.New("pdftotext crashed")})

	_, err := n.Normalise(context.Background(), &domain.RawDocument{URI: "/a.pdf", MIMEType: "application/pdf"})
	assert.ErrorContains(t, err, "pdftotext failed")
}

func TestNormalise_ToolMissing(t *testing.T) {
	n := NewWithRunner(&mockRunner{})
	n.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := n.Normalise(context.Background(), &domain.RawDocument{URI: "/a.pdf"})
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		uri      string
		expected string
	}{
		{name: "first line", content: "Document Title\n\nBody", uri: "/doc.pdf", expected: "Document Title"},
		{name: "skip empty lines", content: "\n\n\nActual Title\nBody", uri: "/doc.pdf", expected: "Actual Title"},
		{name: "fallback to filename", content: "", uri: "/path/to/my_document.pdf", expected: "my document"},
		{
			name:     "skip very long first line",
			content:  strings.Repeat("a", 250) + "\nShort Title",
			uri:      "/doc.pdf",
			expected: "Short Title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content, tc.uri))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
