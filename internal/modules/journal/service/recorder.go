package service

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

type Kind string

const (
	KindSignal      Kind = "signal"
	KindExit        Kind = "exit"
	KindDiscrepancy Kind = "discrepancy"
)

// Recorder is a local append-only trail of what the bot decided.
type Recorder interface {
	RecordSignal(userID int64, sig models.EntrySignal) error
	RecordExit(userID int64, positionID string, action models.ExitAction) error
	RecordDiscrepancy(userID int64, d models.Discrepancy) error
	Close() error
}

type Entry struct {
	ID      string
	Time    time.Time
	Kind    Kind
	UserID  int64
	Symbol  string
	Payload []byte
}

// SQLiteRecorder writes to a single journal table in WAL mode.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite journal opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			kind      TEXT NOT NULL,
			user_id   INTEGER NOT NULL,
			symbol    TEXT,
			payload   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_ts ON journal(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_user ON journal(user_id, kind)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) record(kind Kind, userID int64, symbol string, v any) error {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO journal (id, timestamp, kind, user_id, symbol, payload)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), r.now().UnixMilli(), string(kind), userID, symbol, string(payload),
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(userID int64, sig models.EntrySignal) error {
	return r.record(KindSignal, userID, sig.Symbol, sig)
}

func (r *SQLiteRecorder) RecordExit(userID int64, positionID string, action models.ExitAction) error {
	return r.record(KindExit, userID, positionID, action)
}

func (r *SQLiteRecorder) RecordDiscrepancy(userID int64, d models.Discrepancy) error {
	return r.record(KindDiscrepancy, userID, d.Symbol, d)
}

// Recent returns the newest entries first.
func (r *SQLiteRecorder) Recent(limit int) ([]Entry, error) {
	rows, err := r.db.Query(`SELECT id, timestamp, kind, user_id, symbol, payload
		FROM journal ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e       Entry
			ts      int64
			kind    string
			payload string
		)
		if err := rows.Scan(&e.ID, &ts, &kind, &e.UserID, &e.Symbol, &payload); err != nil {
			return nil, err
		}
		e.Time = time.UnixMilli(ts)
		e.Kind = Kind(kind)
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error { return r.db.Close() }

// Noop is used when journal.path is empty.
type Noop struct{}

func (Noop) RecordSignal(int64, models.EntrySignal) error      { return nil }
func (Noop) RecordExit(int64, string, models.ExitAction) error { return nil }
func (Noop) RecordDiscrepancy(int64, models.Discrepancy) error { return nil }
func (Noop) Close() error                                      { return nil }
