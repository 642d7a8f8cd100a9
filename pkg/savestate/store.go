package savestate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zurustar/scriptvm/pkg/logger"
)

// ErrSlotNotFound indicates the requested save slot doesn't exist
var ErrSlotNotFound = errors.New("save slot not found")

// Slot describes one stored snapshot.
type Slot struct {
	Name    string
	MapID   int32
	SavedAt time.Time
}

// Store keeps snapshots in named slots of a SQLite database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		name     TEXT PRIMARY KEY,
		map_id   INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		data     BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating slots table: %w", err)
	}
	return &Store{db: db, log: logger.For("savestate"), now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes snap to slot, replacing what was there.
func (s *Store) Save(ctx context.Context, slot string, snap *Snapshot) error {
	data, err := Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO slots (name, map_id, saved_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET map_id = excluded.map_id, saved_at = excluded.saved_at, data = excluded.data`,
		slot, snap.MapID, s.now().UnixMilli(), data)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	s.log.Info("Saved", "slot", slot, "map", snap.MapID, "bytes", len(data))
	return nil
}

// Load reads the snapshot in slot.
func (s *Store) Load(ctx context.Context, slot string) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM slots WHERE name = ?", slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
		}
		return nil, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return Unmarshal(data)
}

// List returns every slot, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, map_id, saved_at FROM slots ORDER BY saved_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		var savedAt int64
		if err := rows.Scan(&slot.Name, &slot.MapID, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		slot.SavedAt = time.UnixMilli(savedAt)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Delete removes slot.
func (s *Store) Delete(ctx context.Context, slot string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", slot)
	if err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	return nil
}
