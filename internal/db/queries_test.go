package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/sheetpilot/sheetpilot/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCollection(id, sheet, hash string) *Collection {
	return &Collection{
		ID:          id,
		SheetName:   sheet,
		ContentHash: hash,
		Provider:    "openai",
		CreatedAt:   time.Now().Unix(),
	}
}

func testDocs() []Document {
	return []Document{
		{
			Row:       2,
			Content:   "Row 2: Region: East | Sales: 100",
			Cells:     map[string]string{"A": "East", "B": "100"},
			Embedding: []float32{0.1, 0.2, 0.3},
		},
		{
			Row:       3,
			Content:   "Row 3: Region: West | Sales: 200",
			Cells:     map[string]string{"A": "West", "B": "200"},
			Embedding: []float32{0.4, 0.5, 0.6},
		},
	}
}

func TestInsertAndGetCollection(t *testing.T) {
	db := testDB(t)

	c := testCollection("sheet1_abc", "Sheet1", "abc")
	if err := InsertCollection(db, c, testDocs()); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}
	if c.DocCount != 2 {
		t.Errorf("DocCount = %d, want 2", c.DocCount)
	}

	got, err := GetCollection(db, "Sheet1", "abc")
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if got.ID != "sheet1_abc" || got.Provider != "openai" || got.DocCount != 2 {
		t.Errorf("collection = %+v", got)
	}
}

func TestGetCollection_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetCollection(db, "Sheet1", "nope")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestInsertCollection_DuplicateHash(t *testing.T) {
	db := testDB(t)

	if err := InsertCollection(db, testCollection("c1", "Sheet1", "abc"), nil); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}
	err := InsertCollection(db, testCollection("c2", "Sheet1", "abc"), nil)
	if err != ErrUniqueConstraint {
		t.Errorf("error = %v, want ErrUniqueConstraint", err)
	}
}

func TestLoadDocuments_RoundTrip(t *testing.T) {
	db := testDB(t)

	if err := InsertCollection(db, testCollection("c1", "Sheet1", "abc"), testDocs()); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}

	docs, err := LoadDocuments(db, "c1")
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].Row != 2 || docs[1].Row != 3 {
		t.Errorf("rows = %d, %d, want ordered 2, 3", docs[0].Row, docs[1].Row)
	}
	if docs[0].Cells["A"] != "East" {
		t.Errorf("cells = %v", docs[0].Cells)
	}
	want := []float32{0.1, 0.2, 0.3}
	for i, f := range docs[0].Embedding {
		if f != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, f, want[i])
		}
	}
}

func TestDeleteCollection_Cascades(t *testing.T) {
	db := testDB(t)

	if err := InsertCollection(db, testCollection("c1", "Sheet1", "abc"), testDocs()); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}
	if err := DeleteCollection(db, "c1"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	if _, err := GetCollection(db, "Sheet1", "abc"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND after delete", err)
	}
	docs, err := LoadDocuments(db, "c1")
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("documents survived cascade: %v", docs)
	}
}

func TestDeleteCollectionsForSheet(t *testing.T) {
	db := testDB(t)

	if err := InsertCollection(db, testCollection("old", "Sheet1", "v1"), nil); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}
	if err := InsertCollection(db, testCollection("new", "Sheet1", "v2"), nil); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}
	if err := InsertCollection(db, testCollection("other", "Sheet2", "v1"), nil); err != nil {
		t.Fatalf("InsertCollection() error = %v", err)
	}

	if err := DeleteCollectionsForSheet(db, "Sheet1", "new"); err != nil {
		t.Fatalf("DeleteCollectionsForSheet() error = %v", err)
	}

	if _, err := GetCollection(db, "Sheet1", "v1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("old collection should be gone, err = %v", err)
	}
	if _, err := GetCollection(db, "Sheet1", "v2"); err != nil {
		t.Errorf("kept collection missing: %v", err)
	}
	if _, err := GetCollection(db, "Sheet2", "v1"); err != nil {
		t.Errorf("other sheet's collection missing: %v", err)
	}
}

func TestListCollections(t *testing.T) {
	db := testDB(t)

	a := testCollection("a", "Sheet1", "v1")
	a.CreatedAt = 100
	b := testCollection("b", "Sheet2", "v1")
	b.CreatedAt = 200
	for _, c := range []*Collection{a, b} {
		if err := InsertCollection(db, c, nil); err != nil {
			t.Fatalf("InsertCollection() error = %v", err)
		}
	}

	list, err := ListCollections(db)
	if err != nil {
		t.Fatalf("ListCollections() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Errorf("list = %+v, want newest first", list)
	}
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{1.5, -2.25, 0, 3.14159}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}

	if got := decodeVector(nil); len(got) != 0 {
		t.Errorf("decodeVector(nil) = %v, want empty", got)
	}
}
