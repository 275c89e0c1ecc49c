// Package cache backs the optional --cache fast path: a content-hash-keyed
// store of recognizer verdicts (internal/recognize.Result) so a CI matrix
// rebuilding the same obfuscated client repeatedly does not pay for the
// structural classification sweep on every invocation. The teacher exposes
// modernc.org/sqlite as a Funxy-script database builtin
// (builtins_db_sqlite.go); here the same driver backs a small single-table
// store with no script-level surface at all. Off by default — wired in by
// cmd/abcdeob only when --cache <path> is given.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/obfdofus/abcdeob/internal/recognize"
)

// Store is a handle to the sqlite-backed verdict cache.
type Store struct {
	db *sql.DB
}

// Open creates (if absent) and opens the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS verdicts (
		movie_hash TEXT PRIMARY KEY,
		verdict    BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HashMovie returns the cache key for a movie's raw (pre-decompression)
// bytes: the recognizer's output depends only on the ABC bytecode the
// movie carries, and two byte-identical SWF files always decode to the
// same ABC, so hashing the container is sufficient without re-parsing it
// first.
func HashMovie(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached recognizer verdict for hash, if any.
func (s *Store) Lookup(ctx context.Context, hash string) (recognize.Result, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT verdict FROM verdicts WHERE movie_hash = ?`, hash).Scan(&blob)
	if err == sql.ErrNoRows {
		return recognize.Result{}, false, nil
	}
	if err != nil {
		return recognize.Result{}, false, fmt.Errorf("cache: lookup: %w", err)
	}
	var res recognize.Result
	if err := json.Unmarshal(blob, &res); err != nil {
		return recognize.Result{}, false, fmt.Errorf("cache: decoding cached verdict: %w", err)
	}
	return res, true, nil
}

// Put stores res under hash, replacing any prior verdict for the same
// movie (the obfuscator build may have changed even though some earlier
// run cached a verdict for an identically-hashed input — an explicit
// overwrite keeps the cache consistent with the most recent run rather
// than silently keeping a stale first-write).
func (s *Store) Put(ctx context.Context, hash string, res recognize.Result, nowUnix int64) error {
	blob, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: encoding verdict: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (movie_hash, verdict, created_at) VALUES (?, ?, ?)
		ON CONFLICT(movie_hash) DO UPDATE SET verdict = excluded.verdict, created_at = excluded.created_at
	`, hash, blob, nowUnix)
	if err != nil {
		return fmt.Errorf("cache: storing verdict: %w", err)
	}
	return nil
}
