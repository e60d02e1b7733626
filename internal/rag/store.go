package rag

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/db"
	perrors "github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// Index lifecycle status values.
const (
	StatusIndexed        = "indexed"
	StatusAlreadyIndexed = "already_indexed"
	StatusNoData         = "no_data"
)

// IndexStatus reports the outcome of an index call.
type IndexStatus struct {
	Status     string `json:"status"`
	Collection string `json:"collection,omitempty"`
	Indexed    int    `json:"indexed"`
	Provider   string `json:"provider,omitempty"`
}

// SearchResult is one retrieved row. Score is a cosine distance; lower is
// a better match.
type SearchResult struct {
	Row     int               `json:"row"`
	Content string            `json:"content"`
	Cells   map[string]string `json:"cells"`
	Score   float64           `json:"score"`
	Sheet   string            `json:"sheet"`
}

type cacheEntry struct {
	collection *db.Collection
	docs       []db.Document
}

// Store is the process-wide retrieval index. It is shared across concurrent
// requests; all cache mutations happen under the mutex. Embedding calls are
// issued outside the lock since they are blocking I/O.
type Store struct {
	database *sql.DB
	embedder Embedder
	cfg      *config.Config

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	order  []string          // FIFO insertion order for eviction
	hashes map[string]string // sheet_name -> live content hash
}

// NewStore builds a store over the given database and embedding provider.
func NewStore(database *sql.DB, embedder Embedder, cfg *config.Config) *Store {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Store{
		database: database,
		embedder: embedder,
		cfg:      cfg,
		cache:    map[string]*cacheEntry{},
		hashes:   map[string]string{},
	}
}

// IsStale reports whether the live index for a sheet no longer matches the
// given cells.
func (s *Store) IsStale(cells sheet.CellMap, sheetName string) bool {
	current := ContentHash(cells)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.hashes[sheetName]
	return ok && stored != current
}

// Index embeds a sheet's rows and registers the collection. Re-indexing the
// same content is a no-op; newer content replaces the sheet's older index
// in memory and on disk.
func (s *Store) Index(ctx context.Context, cells sheet.CellMap, sheetName string) (*IndexStatus, error) {
	hash := ContentHash(cells)
	id := CollectionID(sheetName, hash)

	if status := s.lookupExisting(sheetName, hash, id); status != nil {
		return status, nil
	}

	docs := CellsToDocuments(cells)
	if len(docs) == 0 {
		return &IndexStatus{Status: StatusNoData}, nil
	}

	if s.embedder == nil {
		return nil, perrors.NewNoEmbeddings()
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	stored := make([]db.Document, len(docs))
	for i, d := range docs {
		stored[i] = db.Document{Row: d.Row, Content: d.Content, Cells: d.Cells, Embedding: vectors[i]}
	}
	collection := &db.Collection{
		ID:          id,
		SheetName:   sheetName,
		ContentHash: hash,
		Provider:    s.embedder.Name(),
		CreatedAt:   time.Now().Unix(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop older versions of this sheet's index before persisting the new one.
	if err := db.DeleteCollectionsForSheet(s.database, sheetName, id); err != nil {
		return nil, err
	}
	s.dropCachedSheetLocked(sheetName, id)

	if err := db.InsertCollection(s.database, collection, stored); err != nil {
		if err == db.ErrUniqueConstraint {
			// A concurrent request indexed the same content first.
			return &IndexStatus{Status: StatusAlreadyIndexed, Collection: id, Provider: s.embedder.Name()}, nil
		}
		return nil, err
	}

	s.insertLocked(id, &cacheEntry{collection: collection, docs: stored})
	s.hashes[sheetName] = hash

	slog.Info("indexed sheet", "sheet", sheetName, "rows", len(stored), "provider", s.embedder.Name())
	return &IndexStatus{
		Status:     StatusIndexed,
		Collection: id,
		Indexed:    len(stored),
		Provider:   s.embedder.Name(),
	}, nil
}

// lookupExisting returns an already_indexed status when the collection is
// cached or persisted, loading persisted documents back into the cache.
func (s *Store) lookupExisting(sheetName, hash, id string) *IndexStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[id]; ok {
		return &IndexStatus{
			Status:     StatusAlreadyIndexed,
			Collection: id,
			Indexed:    entry.collection.DocCount,
			Provider:   entry.collection.Provider,
		}
	}

	collection, err := db.GetCollection(s.database, sheetName, hash)
	if err != nil {
		return nil
	}
	docs, err := db.LoadDocuments(s.database, collection.ID)
	if err != nil {
		return nil
	}
	s.insertLocked(id, &cacheEntry{collection: collection, docs: docs})
	s.hashes[sheetName] = hash
	return &IndexStatus{
		Status:     StatusAlreadyIndexed,
		Collection: id,
		Indexed:    collection.DocCount,
		Provider:   collection.Provider,
	}
}

// insertLocked adds a cache entry and evicts FIFO past capacity. Eviction
// drops the in-memory copy only; the persisted collection stays until a
// newer hash for its sheet replaces it.
func (s *Store) insertLocked(id string, entry *cacheEntry) {
	if _, ok := s.cache[id]; !ok {
		s.order = append(s.order, id)
	}
	s.cache[id] = entry

	max := s.cfg.RAGMaxCached
	if max <= 0 {
		max = 10
	}
	for len(s.cache) > max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
		slog.Info("evicted cached index", "collection", oldest)
	}
}

// dropCachedSheetLocked removes cached entries for a sheet except keepID.
func (s *Store) dropCachedSheetLocked(sheetName, keepID string) {
	prefix := sheetPrefix(sheetName)
	kept := s.order[:0]
	for _, id := range s.order {
		if strings.HasPrefix(id, prefix) && id != keepID {
			delete(s.cache, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Search returns the k nearest rows for a query, indexing the sheet first
// if its current content has no index yet.
func (s *Store) Search(ctx context.Context, query, sheetName string, cells sheet.CellMap, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = s.cfg.RAGResultsCount
	}

	if _, err := s.Index(ctx, cells, sheetName); err != nil {
		return nil, err
	}

	id := CollectionID(sheetName, ContentHash(cells))
	s.mu.Lock()
	entry, ok := s.cache[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	if s.embedder == nil {
		return nil, perrors.NewNoEmbeddings()
	}
	queryVectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVector := queryVectors[0]

	results := make([]SearchResult, 0, len(entry.docs))
	for _, doc := range entry.docs {
		results = append(results, SearchResult{
			Row:     doc.Row,
			Content: doc.Content,
			Cells:   doc.Cells,
			Score:   cosineDistance(queryVector, doc.Embedding),
			Sheet:   sheetName,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchMulti searches several sheets at once and merges the per-sheet
// results into a single score-ordered list of at most k rows. Sheets are
// visited in name order so repeated calls rank ties the same way.
func (s *Store) SearchMulti(ctx context.Context, query string, sheets map[string]sheet.CellMap, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = s.cfg.RAGResultsCount
	}

	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var merged []SearchResult
	for _, name := range names {
		results, err := s.Search(ctx, query, name, sheets[name], k)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score < merged[j].Score })
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// SimilarRows finds rows similar to one source row, excluding the source
// row itself from the results.
func (s *Store) SimilarRows(ctx context.Context, sheetName string, cells sheet.CellMap, rowNumber, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	var parts []string
	byCol := map[string]string{}
	for ref, value := range cells {
		if col, row, ok := sheet.ParseRef(ref); ok && row == rowNumber {
			byCol[col] = value
		}
	}
	cols := make([]string, 0, len(byCol))
	for c := range byCol {
		cols = append(cols, c)
	}
	sheet.SortColumnLetters(cols)
	for _, c := range cols {
		if byCol[c] != "" {
			parts = append(parts, byCol[c])
		}
	}
	if len(parts) == 0 {
		return nil, perrors.NewNotFound(fmt.Sprintf("row %d", rowNumber))
	}

	results, err := s.Search(ctx, strings.Join(parts, " "), sheetName, cells, k+1)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Row != rowNumber {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

// ContextForQuery returns the context block for an AI query: the full sheet
// when it is small, otherwise the retrieved rows. Retrieval failure falls
// back to the full sheet with a logged degradation, never an error.
func (s *Store) ContextForQuery(ctx context.Context, query string, cells sheet.CellMap, sheetName string) (string, []int, bool) {
	rowCount := RowCount(cells)
	if rowCount <= s.cfg.RAGThresholdRows {
		return FormatAllCells(cells, sheetName), nil, false
	}

	if s.IsStale(cells, sheetName) {
		slog.Info("sheet data changed, re-indexing", "sheet", sheetName)
	}

	results, err := s.Search(ctx, query, sheetName, cells, s.cfg.RAGResultsCount)
	if err != nil || len(results) == 0 {
		slog.Warn("retrieval unavailable, using full context", "sheet", sheetName, "error", err)
		return FormatAllCells(cells, sheetName), nil, false
	}

	lines := []string{
		fmt.Sprintf("Relevant rows from '%s' (semantic search - %d most relevant of %d total):", sheetName, len(results), rowCount),
		"",
	}
	rows := make([]int, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Content)
		rows = append(rows, r.Row)
	}
	lines = append(lines, "", fmt.Sprintf("Note: Showing %d most relevant rows via RAG semantic search.", len(results)))

	return strings.Join(lines, "\n"), rows, true
}

// ClearIndex removes a sheet's indexes from memory and disk. An empty name
// clears everything.
func (s *Store) ClearIndex(sheetName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sheetName == "" {
		collections, err := db.ListCollections(s.database)
		if err != nil {
			return err
		}
		for _, c := range collections {
			if err := db.DeleteCollection(s.database, c.ID); err != nil {
				return err
			}
		}
		s.cache = map[string]*cacheEntry{}
		s.order = nil
		s.hashes = map[string]string{}
		return nil
	}

	if err := db.DeleteCollectionsForSheet(s.database, sheetName, ""); err != nil {
		return err
	}
	s.dropCachedSheetLocked(sheetName, "")
	delete(s.hashes, sheetName)
	return nil
}

// CachedCollections returns the cached collection IDs in insertion order.
func (s *Store) CachedCollections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
