package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS augmented (
	id TEXT PRIMARY KEY,
	channels INTEGER NOT NULL,
	augmented_at TEXT NOT NULL
)`

// Ledger is a sqlite file listing the arrays rewritten by augmentation runs.
type Ledger struct {
	db *sql.DB
}

type Entry struct {
	ID          string
	Channels    int
	AugmentedAt time.Time
}

func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize ledger %s: %w", path, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores the channel count written for id, replacing an earlier entry.
func (l *Ledger) Record(id string, channels int) error {
	_, err := l.db.Exec(
		`INSERT INTO augmented (id, channels, augmented_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET channels = excluded.channels, augmented_at = excluded.augmented_at`,
		id, channels, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", id, err)
	}
	return nil
}

func (l *Ledger) Recorded(id string) (bool, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM augmented WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", id, err)
	}
	return n > 0, nil
}

func (l *Ledger) Get(id string) (Entry, bool, error) {
	var (
		e  Entry
		at string
	)
	err := l.db.QueryRow(`SELECT id, channels, augmented_at FROM augmented WHERE id = ?`, id).Scan(&e.ID, &e.Channels, &at)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query %s: %w", id, err)
	}
	e.AugmentedAt, err = time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Entry{}, false, fmt.Errorf("invalid timestamp for %s: %w", id, err)
	}
	return e, true, nil
}

func (l *Ledger) Count() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM augmented`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
