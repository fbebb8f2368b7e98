// SPDX-License-Identifier: MPL-2.0

package receipt

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Schema versions:
// 0 - initial receipts table
// 1 - index on (formula, fingerprint)
const currentSchemaVersion = 1

// timeFormat has a fixed width so installed_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no receipt matches.
var ErrNotFound = errors.New("receipt not found")

//go:embed schema.sql
var schemaSQL string

// Store is the receipt database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating its directory.
// The store uses a single connection in WAL mode.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open receipt database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to receipt database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts r. Saving the same ID twice is a no-op.
func (s *Store) Save(ctx context.Context, r Receipt) error {
	opts, err := json.Marshal(nonNil(r.Options))
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	args, err := json.Marshal(nonNil(r.Args))
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, formula, version, options, args, keg, fingerprint, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID.String(),
		r.Formula,
		r.Version,
		string(opts),
		string(args),
		r.Keg,
		r.Fingerprint,
		r.InstalledAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

// Find returns the newest receipt of formula with fingerprint.
func (s *Store) Find(ctx context.Context, formula, fingerprint string) (*Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, formula, version, options, args, keg, fingerprint, installed_at
		FROM receipts
		WHERE formula = ? AND fingerprint = ?
		ORDER BY installed_at DESC, id DESC
		LIMIT 1
	`, formula, fingerprint)

	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", formula, fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return r, nil
}

// List returns all receipts, oldest first. An empty formula lists every
// formula.
func (s *Store) List(ctx context.Context, formula string) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, formula, version, options, args, keg, fingerprint, installed_at
		FROM receipts
		WHERE ? = '' OR formula = ?
		ORDER BY installed_at, id
	`, formula, formula)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list receipts: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Receipt, error) {
	var (
		r                         Receipt
		id, opts, args, installed string
	)
	if err := row.Scan(&id, &r.Formula, &r.Version, &opts, &args, &r.Keg, &r.Fingerprint, &installed); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("receipt id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(opts), &r.Options); err != nil {
		return nil, fmt.Errorf("receipt %s options: %w", id, err)
	}
	if err := json.Unmarshal([]byte(args), &r.Args); err != nil {
		return nil, fmt.Errorf("receipt %s args: %w", id, err)
	}
	if r.InstalledAt, err = time.Parse(timeFormat, installed); err != nil {
		return nil, fmt.Errorf("receipt %s installed_at: %w", id, err)
	}
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply receipt schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_receipts_formula_fingerprint
			ON receipts(formula, fingerprint)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
