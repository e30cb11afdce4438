package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/extract"
	"github.com/hyperifyio/rosterscan/internal/fetch"
)

type fakeExtractor struct {
	notConfigured bool
	fn            func(text string, opts extract.Options) ([]candidate.Record, error)
	calls         int32

	mu   sync.Mutex
	opts []extract.Options
}

func (f *fakeExtractor) Configured() bool { return !f.notConfigured }

func (f *fakeExtractor) ExtractChunk(_ context.Context, text string, opts extract.Options) ([]candidate.Record, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return f.fn(text, opts)
}

func ptr[T any](v T) *T { return &v }

const twoSections = "Meet Our Residents\nHeadshot of Maria Lopez, MD\nPGY-1 Pediatrics\n\nClass of 2027\nHeadshot of Maria Lopez, MD\nPGY-1 Pediatrics"

func maria(conf float64) candidate.Record {
	return candidate.Record{
		Name:            "Maria Lopez",
		Specialty:       "Pediatrics",
		TrainingYear:    "PGY-1",
		Confidence:      conf,
		EvidenceSnippet: ptr("Headshot of Maria Lopez, MD"),
	}
}

func TestRun_DedupesAcrossChunks(t *testing.T) {
	fx := &fakeExtractor{fn: func(text string, _ extract.Options) ([]candidate.Record, error) {
		if strings.Contains(text, "Class of 2027") {
			return []candidate.Record{maria(0.9)}, nil
		}
		return []candidate.Record{maria(0.7)}, nil
	}}
	p := &Pipeline{Extractor: fx, MaxChunkChars: 70}
	res, err := p.Run(context.Background(), Request{Type: SourceText, Content: twoSections})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ChunkCount != 2 || fx.calls != 2 {
		t.Fatalf("expected 2 chunks, got %d (calls %d)", res.ChunkCount, fx.calls)
	}
	if len(res.Providers) != 1 || res.Providers[0].Confidence != 0.9 {
		t.Fatalf("expected one Maria Lopez at 0.9, got %+v", res.Providers)
	}
	if res.ProcessedLength != len(twoSections) {
		t.Fatalf("processed length = %d, want %d", res.ProcessedLength, len(twoSections))
	}
	if !res.AllowedDegreesOnly {
		t.Fatalf("degree gating should default to true")
	}
	if res.SpecialtyHint != nil {
		t.Fatalf("expected nil specialty hint")
	}
}

func TestRun_ChunkFailureIsIsolated(t *testing.T) {
	fx := &fakeExtractor{fn: func(text string, _ extract.Options) ([]candidate.Record, error) {
		if strings.Contains(text, "Class of 2027") {
			return nil, &extract.ParseError{Err: errors.New("bad json")}
		}
		return []candidate.Record{maria(0.7)}, nil
	}}
	p := &Pipeline{Extractor: fx, MaxChunkChars: 70, Concurrency: 1}
	res, err := p.Run(context.Background(), Request{Type: SourceText, Content: twoSections})
	if err != nil {
		t.Fatalf("chunk failure must not abort the document: %v", err)
	}
	if res.FailedChunks != 1 {
		t.Fatalf("expected 1 failed chunk, got %d", res.FailedChunks)
	}
	if len(res.Providers) != 1 || res.Providers[0].Confidence != 0.7 {
		t.Fatalf("expected surviving record from healthy chunk, got %+v", res.Providers)
	}
}

func TestRun_DropsUnsupportedRecords(t *testing.T) {
	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) {
		return []candidate.Record{maria(0.8), {Name: "Ghost Person", Confidence: 1}}, nil
	}}
	p := &Pipeline{Extractor: fx}
	res, err := p.Run(context.Background(), Request{Type: SourceText, Content: twoSections})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Providers) != 1 || res.Providers[0].Name != "Maria Lopez" {
		t.Fatalf("expected only grounded records, got %+v", res.Providers)
	}
	for _, r := range res.Providers {
		if !strings.Contains(twoSections, r.Snippet()) {
			t.Fatalf("snippet %q not in source", r.Snippet())
		}
	}
}

func TestRun_PassesOptions(t *testing.T) {
	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) { return nil, nil }}
	p := &Pipeline{Extractor: fx}
	res, err := p.Run(context.Background(), Request{
		Type:               SourceText,
		Content:            twoSections,
		SpecialtyHint:      ptr("  Pediatrics "),
		AllowedDegreesOnly: ptr(false),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AllowedDegreesOnly {
		t.Fatalf("expected gating disabled")
	}
	if res.SpecialtyHint == nil || *res.SpecialtyHint != "Pediatrics" {
		t.Fatalf("expected trimmed hint, got %v", res.SpecialtyHint)
	}
	if len(fx.opts) != 1 || fx.opts[0].SpecialtyHint != "Pediatrics" || fx.opts[0].RequireDegree {
		t.Fatalf("unexpected options %+v", fx.opts)
	}
	if res.Providers == nil {
		t.Fatalf("providers should be empty, not nil")
	}
}

func TestRun_InputErrors(t *testing.T) {
	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) { return nil, nil }}
	p := &Pipeline{Extractor: fx}
	cases := []Request{
		{Type: SourceText, Content: "hi"},
		{Type: SourceText, Content: "   "},
		{Type: "pdf", Content: twoSections},
		{Content: twoSections},
	}
	for _, req := range cases {
		_, err := p.Run(context.Background(), req)
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("request %+v: expected InputError, got %v", req, err)
		}
	}
	if fx.calls != 0 {
		t.Fatalf("no extraction expected for invalid input")
	}
}

func TestRun_NotConfigured(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	fx := &fakeExtractor{notConfigured: true}
	p := &Pipeline{Extractor: fx, Fetcher: &fetch.Client{}}
	if _, err := p.Run(context.Background(), Request{Type: SourceText, Content: twoSections}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := p.Run(context.Background(), Request{Type: SourceURL, Content: srv.URL}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for url, got %v", err)
	}
	if hits != 0 || fx.calls != 0 {
		t.Fatalf("expected fail-fast before fetch and extraction")
	}
	if _, err := (&Pipeline{}).Run(context.Background(), Request{Type: SourceText, Content: twoSections}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for nil extractor, got %v", err)
	}
}

func TestRun_URLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><script>var x = "Ghost Person, MD";</script></head><body>
<h2>Current Residents</h2>
<ul><li><img alt="Headshot of Jane Smith"><p>Jane Smith, MD</p><p>PGY-2 Internal Medicine</p></li></ul>
</body></html>`))
	}))
	defer srv.Close()

	var seen string
	fx := &fakeExtractor{fn: func(text string, _ extract.Options) ([]candidate.Record, error) {
		seen = text
		return []candidate.Record{{Name: "Jane Smith", Confidence: 0.9}}, nil
	}}
	p := &Pipeline{Extractor: fx, Fetcher: &fetch.Client{}}
	res, err := p.Run(context.Background(), Request{Type: SourceURL, Content: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(seen, "<") || strings.Contains(seen, "Ghost") {
		t.Fatalf("extractor should see plain text without scripts, got %q", seen)
	}
	if res.SourceType != SourceURL || len(res.Providers) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Providers[0].TrainingYear != "PGY-2" {
		t.Fatalf("expected year inferred from synthesized snippet, got %q", res.Providers[0].TrainingYear)
	}
}

func TestRun_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) { return nil, nil }}
	p := &Pipeline{Extractor: fx, Fetcher: &fetch.Client{}}
	_, err := p.Run(context.Background(), Request{Type: SourceURL, Content: srv.URL})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	var se *fetch.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected wrapped 404, got %v", err)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) {
		return nil, context.Canceled
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Pipeline{Extractor: fx}).Run(ctx, Request{Type: SourceText, Content: twoSections}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestRun_InferredYearCollapsesDuplicates(t *testing.T) {
	text := "Internal Medicine Residents\nHeadshot of Jane Smith, MD\nPGY-2 Internal Medicine\n"
	fx := &fakeExtractor{fn: func(string, extract.Options) ([]candidate.Record, error) {
		return []candidate.Record{
			{Name: "Jane Smith", Specialty: "Internal Medicine", TrainingYear: "PGY-2", Confidence: 0.9},
			{Name: "Jane Smith", Specialty: "Internal Medicine", Confidence: 0.6},
		}, nil
	}}
	p := &Pipeline{Extractor: fx}
	res, err := p.Run(context.Background(), Request{Type: SourceText, Content: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Providers) != 1 {
		t.Fatalf("expected one Jane Smith after year inference, got %+v", res.Providers)
	}
	got := res.Providers[0]
	if got.TrainingYear != "PGY-2" || got.Confidence != 0.9 || !got.HasSnippet() {
		t.Fatalf("unexpected survivor %+v", got)
	}
}
