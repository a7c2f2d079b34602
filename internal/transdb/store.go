// Package transdb keeps transition tables in a SQLite database so a learned
// model can be shared between runs without shipping a JSON file.
package transdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"belief-driver/internal/grid"
	"belief-driver/internal/inference"
)

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
	from_row INTEGER NOT NULL,
	from_col INTEGER NOT NULL,
	to_row   INTEGER NOT NULL,
	to_col   INTEGER NOT NULL,
	prob     REAL    NOT NULL,
	PRIMARY KEY (from_row, from_col, to_row, to_col)
)`

// Store is a SQLite-backed transition table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transition db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored table with transitions in a single transaction.
func (s *Store) Save(transitions []inference.Transition) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transitions`); err != nil {
		return fmt.Errorf("failed to clear transitions: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO transitions (from_row, from_col, to_row, to_col, prob) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tr := range transitions {
		if _, err := stmt.Exec(tr.From.Row, tr.From.Col, tr.To.Row, tr.To.Col, tr.Prob); err != nil {
			return fmt.Errorf("failed to insert %v->%v: %w", tr.From, tr.To, err)
		}
	}
	return tx.Commit()
}

// Load returns every stored transition ordered by source then destination.
func (s *Store) Load() ([]inference.Transition, error) {
	rows, err := s.db.Query(`SELECT from_row, from_col, to_row, to_col, prob FROM transitions
		ORDER BY from_row, from_col, to_row, to_col`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var out []inference.Transition
	for rows.Next() {
		var tr inference.Transition
		if err := rows.Scan(&tr.From.Row, &tr.From.Col, &tr.To.Row, &tr.To.Col, &tr.Prob); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Count returns the number of stored rows.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&n)
	return n, err
}

// Sources returns the distinct source tiles in the table.
func (s *Store) Sources() ([]grid.Tile, error) {
	rows, err := s.db.Query(`SELECT DISTINCT from_row, from_col FROM transitions ORDER BY from_row, from_col`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var tiles []grid.Tile
	for rows.Next() {
		var t grid.Tile
		if err := rows.Scan(&t.Row, &t.Col); err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, rows.Err()
}
