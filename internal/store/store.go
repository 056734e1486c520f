// Package store persists submission handles and verification receipts in
// a local SQLite database, so a hash submitted today can be correlated
// with the proof retrieved and verified later.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"calpoint/pkg/proof"
)

// Schema for the calpoint receipt store.
const schema = `
CREATE TABLE IF NOT EXISTS handles (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    uri             TEXT NOT NULL,
    hash            TEXT NOT NULL,
    hash_id_node    TEXT NOT NULL UNIQUE,
    group_id        TEXT NOT NULL,
    submitted_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_handles_hash ON handles(hash);
CREATE INDEX IF NOT EXISTS idx_handles_group ON handles(group_id);

CREATE TABLE IF NOT EXISTS receipts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    hash            TEXT NOT NULL,
    hash_id_node    TEXT NOT NULL,
    branch          TEXT,
    anchor_type     TEXT NOT NULL,
    anchor_id       TEXT NOT NULL,
    expected_value  TEXT NOT NULL,
    uri             TEXT NOT NULL,
    verified        INTEGER NOT NULL,
    verified_at     INTEGER
);

CREATE INDEX IF NOT EXISTS idx_receipts_hash ON receipts(hash);
`

// Store is the SQLite receipt store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies the
// schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveHandles records handles returned by a hash submission.
func (s *Store) SaveHandles(handles []proof.ProofHandle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO handles (uri, hash, hash_id_node, group_id, submitted_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for _, h := range handles {
		if _, err := stmt.Exec(h.URI, h.Hash, h.HashIDNode, h.GroupID, now); err != nil {
			return fmt.Errorf("insert handle: %w", err)
		}
	}
	return tx.Commit()
}

// HandlesByHash returns all stored handles for a content hash.
func (s *Store) HandlesByHash(hash string) ([]proof.ProofHandle, error) {
	rows, err := s.db.Query(`
		SELECT uri, hash, hash_id_node, group_id FROM handles
		WHERE hash = ? ORDER BY id`, hash)
	if err != nil {
		return nil, fmt.Errorf("query handles: %w", err)
	}
	defer rows.Close()

	var handles []proof.ProofHandle
	for rows.Next() {
		var h proof.ProofHandle
		if err := rows.Scan(&h.URI, &h.Hash, &h.HashIDNode, &h.GroupID); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// SaveReceipts records the outcome of one verification run.
func (s *Store) SaveReceipts(records []proof.FlatProofAnchor) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO receipts (hash, hash_id_node, branch, anchor_type, anchor_id, expected_value, uri, verified, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var verifiedAt sql.NullInt64
		if r.VerifiedAt != nil {
			verifiedAt = sql.NullInt64{Int64: r.VerifiedAt.UnixNano(), Valid: true}
		}
		if _, err := stmt.Exec(r.Hash, r.HashIDNode, r.Branch, r.Type, r.AnchorID,
			r.ExpectedValue, r.URI, r.Verified, verifiedAt); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
	}
	return tx.Commit()
}

// ReceiptsByHash returns all stored verification receipts for a content
// hash, oldest first.
func (s *Store) ReceiptsByHash(hash string) ([]proof.FlatProofAnchor, error) {
	rows, err := s.db.Query(`
		SELECT hash, hash_id_node, branch, anchor_type, anchor_id, expected_value, uri, verified, verified_at
		FROM receipts WHERE hash = ? ORDER BY id`, hash)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var records []proof.FlatProofAnchor
	for rows.Next() {
		var r proof.FlatProofAnchor
		var verifiedAt sql.NullInt64
		if err := rows.Scan(&r.Hash, &r.HashIDNode, &r.Branch, &r.Type, &r.AnchorID,
			&r.ExpectedValue, &r.URI, &r.Verified, &verifiedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if verifiedAt.Valid {
			t := time.Unix(0, verifiedAt.Int64).UTC()
			r.VerifiedAt = &t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
