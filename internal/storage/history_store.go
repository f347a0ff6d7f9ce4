package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/history"
)

// HistoryStore persists undo history in SQLite, one linear journal per
// document.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// For returns the journal of a single document.
func (s *HistoryStore) For(documentID string) history.Journal {
	return &journal{db: s.db, documentID: documentID}
}

// Load returns the persisted entries of a document in seq order together
// with the cursor seq. A document without history yields no entries.
func (s *HistoryStore) Load(documentID string) ([]history.Entry, int, error) {
	rows, err := s.db.Conn().Query(
		`SELECT seq, label, snapshot_json, created_at
		 FROM history_nodes WHERE document_id = ? ORDER BY seq ASC`, documentID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		var snapshot string
		if err := rows.Scan(&e.Seq, &e.Label, &snapshot, &e.At); err != nil {
			return nil, 0, fmt.Errorf("scan history node: %w", err)
		}
		e.Doc = &domain.Document{}
		if err := json.Unmarshal([]byte(snapshot), e.Doc); err != nil {
			return nil, 0, fmt.Errorf("decode snapshot %d: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(entries) == 0 {
		return nil, 0, nil
	}

	cursor := entries[len(entries)-1].Seq
	err = s.db.Conn().QueryRow(
		`SELECT cursor_seq FROM history_state WHERE document_id = ?`, documentID,
	).Scan(&cursor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load history cursor: %w", err)
	}
	return entries, cursor, nil
}

// Clear removes all history of a document.
func (s *HistoryStore) Clear(documentID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM history_state WHERE document_id = ?`, documentID)
	_, err := s.db.Conn().Exec(`DELETE FROM history_nodes WHERE document_id = ?`, documentID)
	return err
}

type journal struct {
	db         *DB
	documentID string
}

func (j *journal) Append(e history.Entry) error {
	snapshot, err := json.Marshal(e.Doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := j.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Appending after an undo drops the redo branch.
	if _, err := tx.Exec(
		`DELETE FROM history_nodes WHERE document_id = ? AND seq >= ?`, j.documentID, e.Seq,
	); err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO history_nodes (id, document_id, seq, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.documentID, e.Seq, e.Label, string(snapshot), e.At,
	); err != nil {
		return fmt.Errorf("insert history node: %w", err)
	}
	if err := upsertCursor(tx, j.documentID, e.Seq); err != nil {
		return err
	}
	return tx.Commit()
}

func (j *journal) Move(seq int) error {
	return upsertCursor(j.db.Conn(), j.documentID, seq)
}

func (j *journal) Prune(keepFrom int) error {
	_, err := j.db.Conn().Exec(
		`DELETE FROM history_nodes WHERE document_id = ? AND seq < ?`, j.documentID, keepFrom,
	)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertCursor(x execer, documentID string, seq int) error {
	_, err := x.Exec(
		`INSERT INTO history_state (document_id, cursor_seq) VALUES (?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET cursor_seq = excluded.cursor_seq`,
		documentID, seq,
	)
	if err != nil {
		return fmt.Errorf("update history cursor: %w", err)
	}
	return nil
}
