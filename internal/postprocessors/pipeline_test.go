package postprocessors

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined chunks.
type mockProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.chunks != nil {
		return m.chunks, nil
	}
	return chunks, nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}

	p.Add(&mockProcessor{name: "test"})
	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_Process_ChainsProcessors(t *testing.T) {
	created := []domain.Chunk{{Text: "a"}, {Text: "b"}}
	p := NewPipeline(
		&mockProcessor{name: "first", chunks: created},
		&mockProcessor{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), &domain.Document{Content: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(chunks, created) {
		t.Errorf("expected %v, got %v", created, chunks)
	}
}

func TestPipeline_Process_Error(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockProcessor{name: "broken", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if err.Error() != "processor broken: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&mockProcessor{name: "a"}).Process(ctx, &domain.Document{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(map[string]map[string]any{"chunker": {"max_words": int64(4)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(p.Names(), DefaultOrder) {
		t.Errorf("expected %v, got %v", DefaultOrder, p.Names())
	}

	doc := &domain.Document{
		Source:  "rules.txt",
		Content: "•  You   need a job offer.\r\n\n\n\nThe salary must be £29,000.",
	}
	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"- You need a", "job offer.", "The salary must be", "£29,000."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, c.Text, want[i])
		}
		if c.Source != "rules.txt" {
			t.Errorf("chunk %d source = %q", i, c.Source)
		}
	}
}
