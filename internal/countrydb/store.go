// Package countrydb keeps the ISO 3166 country table in SQLite and serves an
// in-memory index for matching country references in document text.
package countrydb

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed countries.csv
var seedCSV []byte

const schema = `
CREATE TABLE IF NOT EXISTS countries (
	alpha2  TEXT PRIMARY KEY,
	alpha3  TEXT NOT NULL UNIQUE,
	name    TEXT NOT NULL,
	aliases TEXT NOT NULL DEFAULT ''
)`

// Country is one ISO 3166 row. Aliases include demonyms and native names.
type Country struct {
	Alpha2  string   `json:"alpha2"`
	Alpha3  string   `json:"alpha3"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens an existing database file. A missing file is an error rather
// than an empty database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("country db path not configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("country db: %w", err)
	}
	return open(ctx, path)
}

// Create opens path, creating the file and schema if needed.
func Create(ctx context.Context, path string) (*Store, error) {
	s, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the handle.
func (s *Store) Close() error { return s.db.Close() }

// Upsert writes countries in one transaction.
func (s *Store) Upsert(ctx context.Context, countries []Country) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO countries (alpha2, alpha3, name, aliases) VALUES (?, ?, ?, ?)
		 ON CONFLICT(alpha2) DO UPDATE SET alpha3 = excluded.alpha3, name = excluded.name, aliases = excluded.aliases`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range countries {
		if _, err := stmt.ExecContext(ctx, c.Alpha2, c.Alpha3, c.Name, strings.Join(c.Aliases, ";")); err != nil {
			return fmt.Errorf("upsert %s: %w", c.Alpha2, err)
		}
	}
	return tx.Commit()
}

// Countries returns every row ordered by alpha-2 code.
func (s *Store) Countries(ctx context.Context) ([]Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alpha2, alpha3, name, aliases FROM countries ORDER BY alpha2`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Country
	for rows.Next() {
		var c Country
		var aliases string
		if err := rows.Scan(&c.Alpha2, &c.Alpha3, &c.Name, &aliases); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		c.Aliases = splitAliases(aliases)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Seed creates (or refreshes) the database at path from the embedded table.
func Seed(ctx context.Context, path string) (int, error) {
	countries, err := SeedCountries()
	if err != nil {
		return 0, err
	}
	s, err := Create(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()
	if err := s.Upsert(ctx, countries); err != nil {
		return 0, err
	}
	return len(countries), nil
}

// Load reads every country from an existing database into an Index.
// A database without rows is an error.
func Load(ctx context.Context, path string) (*Index, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()
	countries, err := s.Countries(ctx)
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return nil, errors.New("country db contains no countries")
	}
	return NewIndex(countries), nil
}

// SeedCountries parses the embedded ISO table.
func SeedCountries() ([]Country, error) {
	return parseCSV(bytes.NewReader(seedCSV))
}

func parseCSV(r io.Reader) ([]Country, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	header := true
	var out []Country
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse countries: %w", err)
		}
		if header {
			header = false
			continue
		}
		out = append(out, Country{
			Alpha2:  strings.TrimSpace(rec[0]),
			Alpha3:  strings.TrimSpace(rec[1]),
			Name:    strings.TrimSpace(rec[2]),
			Aliases: splitAliases(rec[3]),
		})
	}
}

func splitAliases(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ";") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
