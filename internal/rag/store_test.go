package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/db"
	"github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// letterEmbedder maps text to letter-frequency vectors. Deterministic and
// crude, but texts sharing words land close together, which is all the
// ranking tests need.
type letterEmbedder struct {
	calls int
}

func (e *letterEmbedder) Name() string { return "fake" }

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

func newTestStore(t *testing.T, embedder Embedder, cfg *config.Config) *Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, embedder, cfg)
}

func TestIndex_Lifecycle(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)
	ctx := context.Background()

	status, err := s.Index(ctx, ragCells(), "Feedback")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if status.Status != StatusIndexed || status.Indexed != 3 || status.Provider != "fake" {
		t.Errorf("status = %+v", status)
	}

	// Same content again is a no-op.
	status, err = s.Index(ctx, ragCells(), "Feedback")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if status.Status != StatusAlreadyIndexed {
		t.Errorf("status = %+v, want already_indexed", status)
	}

	// Changed content replaces the old index for the sheet.
	changed := ragCells()
	changed["B2"] = "edited feedback"
	oldHash := ContentHash(ragCells())

	status, err = s.Index(ctx, changed, "Feedback")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if status.Status != StatusIndexed {
		t.Errorf("status = %+v, want re-indexed", status)
	}
	if _, err := db.GetCollection(s.database, "Feedback", oldHash); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("old collection should be deleted, err = %v", err)
	}
	if !s.IsStale(ragCells(), "Feedback") {
		t.Error("old cells should now be stale")
	}
}

func TestIndex_NoData(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)

	status, err := s.Index(context.Background(), sheet.CellMap{"A1": "Header only"}, "Empty")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if status.Status != StatusNoData {
		t.Errorf("status = %+v, want no_data", status)
	}
}

func TestIndex_NoEmbedder(t *testing.T) {
	s := newTestStore(t, nil, nil)

	_, err := s.Index(context.Background(), ragCells(), "Feedback")
	if !errors.Is(err, errors.ErrNoEmbeddings) {
		t.Errorf("error = %v, want NO_EMBEDDINGS", err)
	}
}

func TestIndex_PersistedAcrossStores(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init() error = %v", err)
	}
	defer database.Close()

	first := NewStore(database, &letterEmbedder{}, nil)
	if _, err := first.Index(context.Background(), ragCells(), "Feedback"); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	// A fresh store over the same database reloads from disk.
	second := NewStore(database, &letterEmbedder{}, nil)
	status, err := second.Index(context.Background(), ragCells(), "Feedback")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if status.Status != StatusAlreadyIndexed || status.Indexed != 3 {
		t.Errorf("status = %+v, want already_indexed from disk", status)
	}

	results, err := second.Search(context.Background(), "shipping delayed", "Feedback", ragCells(), 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Row != 3 {
		t.Errorf("results = %+v, want row 3", results)
	}
}

func TestIndex_FIFOEviction(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RAGMaxCached = 2
	s := newTestStore(t, &letterEmbedder{}, cfg)
	ctx := context.Background()

	sheets := []string{"One", "Two", "Three"}
	for _, name := range sheets {
		cells := ragCells()
		cells["A1"] = name // distinct content per sheet
		if _, err := s.Index(ctx, cells, name); err != nil {
			t.Fatalf("Index(%s) error = %v", name, err)
		}
	}

	cached := s.CachedCollections()
	if len(cached) != 2 {
		t.Fatalf("cached = %v, want 2 entries", cached)
	}
	for _, id := range cached {
		if strings.HasPrefix(id, "One_") {
			t.Errorf("oldest entry not evicted: %v", cached)
		}
	}

	// Eviction is cache-only; the collection is still on disk.
	cells := ragCells()
	cells["A1"] = "One"
	if _, err := db.GetCollection(s.database, "One", ContentHash(cells)); err != nil {
		t.Errorf("evicted collection missing from disk: %v", err)
	}
}

func TestSearch_RanksByRelevance(t *testing.T) {
	emb := &letterEmbedder{}
	s := newTestStore(t, emb, nil)

	results, err := s.Search(context.Background(), "shipping was delayed", "Feedback", ragCells(), 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Row != 3 {
		t.Errorf("best match row = %d, want 3", results[0].Row)
	}
	if results[0].Score >= results[1].Score {
		t.Errorf("scores not ascending: %v, %v", results[0].Score, results[1].Score)
	}
	if results[0].Sheet != "Feedback" || results[0].Cells["A"] != "Bob" {
		t.Errorf("result = %+v", results[0])
	}
	if emb.calls == 0 {
		t.Error("search should auto-index")
	}
}

func TestSearchMulti_MergesSheetsByScore(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)

	sheets := map[string]sheet.CellMap{
		"Feedback": ragCells(),
		"Returns": {
			"A1": "Name", "B1": "Reason",
			"A2": "Dee", "B2": "Item arrived broken",
			"A3": "Eli", "B3": "Delayed shipping, want refund",
		},
	}

	results, err := s.SearchMulti(context.Background(), "shipping was delayed", sheets, 3)
	if err != nil {
		t.Fatalf("SearchMulti() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score > results[i].Score {
			t.Fatalf("scores not ascending: %v", results)
		}
	}

	// The shipping rows from both sheets outrank everything else.
	top := map[string]int{results[0].Sheet: results[0].Row, results[1].Sheet: results[1].Row}
	if top["Feedback"] != 3 || top["Returns"] != 3 {
		t.Errorf("top results = %v, want the shipping row from each sheet", top)
	}

	// k caps the merged list, not the per-sheet lists.
	capped, err := s.SearchMulti(context.Background(), "shipping was delayed", sheets, 2)
	if err != nil {
		t.Fatalf("SearchMulti() error = %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("got %d results, want 2", len(capped))
	}
}

func TestSimilarRows_ExcludesSource(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)

	results, err := s.SimilarRows(context.Background(), "Feedback", ragCells(), 2, 5)
	if err != nil {
		t.Fatalf("SimilarRows() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, r := range results {
		if r.Row == 2 {
			t.Errorf("source row leaked into results: %+v", r)
		}
	}
}

func TestSimilarRows_MissingRow(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)

	_, err := s.SimilarRows(context.Background(), "Feedback", ragCells(), 99, 5)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestContextForQuery_SmallSheetFullContext(t *testing.T) {
	emb := &letterEmbedder{}
	s := newTestStore(t, emb, nil)

	out, rows, usedRAG := s.ContextForQuery(context.Background(), "anything", ragCells(), "Feedback")
	if usedRAG {
		t.Error("small sheet should not use retrieval")
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
	if !strings.HasPrefix(out, "All data from 'Feedback'") {
		t.Errorf("out = %q", out)
	}
	if emb.calls != 0 {
		t.Error("small sheet should not touch the embedder")
	}
}

func TestContextForQuery_LargeSheetUsesRetrieval(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RAGThresholdRows = 2
	cfg.RAGResultsCount = 2
	s := newTestStore(t, &letterEmbedder{}, cfg)

	out, rows, usedRAG := s.ContextForQuery(context.Background(), "delayed shipping", ragCells(), "Feedback")
	if !usedRAG {
		t.Fatalf("want retrieval; out = %q", out)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %v, want 2", rows)
	}
	if !strings.Contains(out, "Relevant rows from 'Feedback' (semantic search - 2 most relevant of 4 total):") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "Note: Showing 2 most relevant rows via RAG semantic search.") {
		t.Errorf("out = %q", out)
	}
}

func TestContextForQuery_FallsBackWhenRetrievalFails(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RAGThresholdRows = 2
	s := newTestStore(t, nil, cfg) // no embedder: retrieval errors out

	out, _, usedRAG := s.ContextForQuery(context.Background(), "x", ragCells(), "Feedback")
	if usedRAG {
		t.Error("failed retrieval must fall back to full context")
	}
	if !strings.HasPrefix(out, "All data from 'Feedback'") {
		t.Errorf("out = %q", out)
	}
}

func TestClearIndex(t *testing.T) {
	s := newTestStore(t, &letterEmbedder{}, nil)
	ctx := context.Background()

	if _, err := s.Index(ctx, ragCells(), "Feedback"); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if err := s.ClearIndex("Feedback"); err != nil {
		t.Fatalf("ClearIndex() error = %v", err)
	}

	if len(s.CachedCollections()) != 0 {
		t.Errorf("cache = %v, want empty", s.CachedCollections())
	}
	if _, err := db.GetCollection(s.database, "Feedback", ContentHash(ragCells())); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("collection should be deleted from disk, err = %v", err)
	}
}
