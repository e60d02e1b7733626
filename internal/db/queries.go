package db

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.PilotError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Collection is one persisted vector index: all data rows of one sheet at
// one content hash, embedded by one provider.
type Collection struct {
	ID          string
	SheetName   string
	ContentHash string
	Provider    string
	DocCount    int
	CreatedAt   int64
}

// Document is one embedded sheet row.
type Document struct {
	Row       int
	Content   string
	Cells     map[string]string
	Embedding []float32
}

// InsertCollection stores a collection and its documents in one transaction.
func InsertCollection(db *sql.DB, c *Collection, docs []Document) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO collections (id, sheet_name, content_hash, provider, doc_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.SheetName, c.ContentHash, c.Provider, len(docs), c.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO documents (collection_id, row_number, content, cells_json, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	for _, d := range docs {
		cellsJSON, err := json.Marshal(d.Cells)
		if err != nil {
			return errors.NewInternal(err)
		}
		if _, err := stmt.Exec(c.ID, d.Row, d.Content, string(cellsJSON), encodeVector(d.Embedding)); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	c.DocCount = len(docs)
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetCollection retrieves a collection by sheet name and content hash.
func GetCollection(db *sql.DB, sheetName, contentHash string) (*Collection, error) {
	row := db.QueryRow(`
		SELECT id, sheet_name, content_hash, provider, doc_count, created_at
		FROM collections
		WHERE sheet_name = ? AND content_hash = ?
	`, sheetName, contentHash)

	var c Collection
	err := row.Scan(&c.ID, &c.SheetName, &c.ContentHash, &c.Provider, &c.DocCount, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(sheetName)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &c, nil
}

// ListCollections returns all collections, newest first.
func ListCollections(db *sql.DB) ([]Collection, error) {
	rows, err := db.Query(`
		SELECT id, sheet_name, content_hash, provider, doc_count, created_at
		FROM collections
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.SheetName, &c.ContentHash, &c.Provider, &c.DocCount, &c.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteCollection removes a collection and (via cascade) its documents.
func DeleteCollection(db *sql.DB, id string) error {
	_, err := db.Exec(`DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteCollectionsForSheet removes every collection for a sheet except the
// one identified by keepID. Used when a newer content hash replaces the
// sheet's live index. An empty keepID removes them all.
func DeleteCollectionsForSheet(db *sql.DB, sheetName, keepID string) error {
	_, err := db.Exec(`DELETE FROM collections WHERE sheet_name = ? AND id != ?`, sheetName, keepID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadDocuments returns a collection's documents ordered by row number.
func LoadDocuments(db *sql.DB, collectionID string) ([]Document, error) {
	rows, err := db.Query(`
		SELECT row_number, content, cells_json, embedding
		FROM documents
		WHERE collection_id = ?
		ORDER BY row_number
	`, collectionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d         Document
			cellsJSON string
			blob      []byte
		)
		if err := rows.Scan(&d.Row, &d.Content, &cellsJSON, &blob); err != nil {
			return nil, errors.NewInternal(err)
		}
		if cellsJSON != "" {
			if err := json.Unmarshal([]byte(cellsJSON), &d.Cells); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		d.Embedding = decodeVector(blob)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// encodeVector packs a float32 vector into a little-endian blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian blob into a float32 vector.
func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
