// Package trace is an optional evaluation-trace store: one row per
// top-level evaluate() call, persisted with modernc.org/sqlite so past
// runs can be read back with RunsForSession without re-running the
// program. Callers record rows themselves; cmd/elfe does not use it. It
// is a host-side concern (§6 safe-point / error-sink boundary), never
// imported by internal/evaluator.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pombredanne/elfe/internal/ast"
)

// Store persists evaluation trace rows to a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists. path may be ":memory:" for an ephemeral
// store, useful in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: opening %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	session     TEXT NOT NULL,
	line        INTEGER NOT NULL,
	column      INTEGER NOT NULL,
	result_kind TEXT NOT NULL,
	opcode_ids  TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Run is one recorded top-level evaluation.
type Run struct {
	ID         uuid.UUID
	Session    uuid.UUID
	Pos        ast.Pos
	ResultKind string
	OpcodeIDs  []string
	RecordedAt time.Time
}

// RecordRun inserts one row describing a top-level evaluate() call.
func (s *Store) RecordRun(session uuid.UUID, pos ast.Pos, resultKind string, opcodeIDs []string) (Run, error) {
	run := Run{
		ID:         uuid.New(),
		Session:    session,
		Pos:        pos,
		ResultKind: resultKind,
		OpcodeIDs:  opcodeIDs,
		RecordedAt: time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, session, line, column, result_kind, opcode_ids, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Session.String(), pos.Line, pos.Column, resultKind, joinOpcodeIDs(opcodeIDs), run.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("trace: recording run: %w", err)
	}
	return run, nil
}

// RunsForSession returns every recorded run for session, oldest first.
func (s *Store) RunsForSession(session uuid.UUID) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, session, line, column, result_kind, opcode_ids, recorded_at FROM runs WHERE session = ? ORDER BY recorded_at ASC`,
		session.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("trace: querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var idStr, sessionStr, resultKind, opcodeIDs, recordedAt string
		var run Run
		if err := rows.Scan(&idStr, &sessionStr, &run.Pos.Line, &run.Pos.Column, &resultKind, &opcodeIDs, &recordedAt); err != nil {
			return nil, fmt.Errorf("trace: scanning run: %w", err)
		}
		run.ID, _ = uuid.Parse(idStr)
		run.Session, _ = uuid.Parse(sessionStr)
		run.ResultKind = resultKind
		run.OpcodeIDs = splitOpcodeIDs(opcodeIDs)
		run.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func joinOpcodeIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func splitOpcodeIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
