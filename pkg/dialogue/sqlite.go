package dialogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS gpt_dialogue (
	fingerprint    TEXT PRIMARY KEY,
	character_name TEXT,
	model_version  TEXT NOT NULL,
	question       TEXT NOT NULL,
	context        TEXT NOT NULL,
	stop_words     TEXT NOT NULL DEFAULT '',
	answer         TEXT NOT NULL
);
`

// SQLiteCache is the local dialogue cache used by single-player
// sessions (CGo-free driver, safe to ship in the console client).
type SQLiteCache struct {
	db *sql.DB
}

var _ Cache = (*SQLiteCache)(nil)

// OpenSQLiteCache opens (creating if needed) a SQLite dialogue cache
// at path. Pass ":memory:" for an ephemeral cache.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dialogue db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create dialogue schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Get(ctx context.Context, d *Dialogue) (string, bool, error) {
	var answer string
	err := c.db.QueryRowContext(ctx,
		`SELECT answer FROM gpt_dialogue WHERE fingerprint = ?`,
		d.Fingerprint(),
	).Scan(&answer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("dialogue cache get failed: %w", err)
	}
	return answer, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, d *Dialogue) error {
	if d.Answer == nil {
		return ErrNoAnswer
	}
	var charName sql.NullString
	if d.CharacterName != nil {
		charName = sql.NullString{String: *d.CharacterName, Valid: true}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO gpt_dialogue
			(fingerprint, character_name, model_version, question, context, stop_words, answer)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET answer = excluded.answer`,
		d.Fingerprint(), charName, d.ModelVersion, d.Question, d.Context, d.StopWords, *d.Answer,
	)
	if err != nil {
		return fmt.Errorf("dialogue cache put failed: %w", err)
	}
	return nil
}
