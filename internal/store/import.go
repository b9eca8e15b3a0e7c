package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
)

// Stats counts the rows of an imported snapshot.
type Stats struct {
	Objects int `json:"objects"`
	Tables  int `json:"tables"`
	Entries int `json:"entries"`
	Events  int `json:"events"`
}

// Import replaces the stored snapshot with snap in one transaction. The
// snapshot is validated first; on any error nothing is changed.
func (s *Store) Import(ctx context.Context, snap *ledger.Snapshot) (Stats, error) {
	if s.readOnly {
		return Stats{}, fmt.Errorf("import: store is read-only")
	}
	if err := snap.Validate(); err != nil {
		return Stats{}, fmt.Errorf("import: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"table_entries", "tables", "objects", "events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Stats{}, fmt.Errorf("import: clear %s: %w", table, err)
		}
	}

	var stats Stats
	for i, o := range snap.Objects {
		if err := insertObject(ctx, tx, int64(i), o); err != nil {
			return Stats{}, err
		}
		stats.Objects++
	}
	for _, t := range snap.Tables {
		n, err := insertTable(ctx, tx, t)
		if err != nil {
			return Stats{}, err
		}
		stats.Tables++
		stats.Entries += n
	}
	for i, e := range snap.Events {
		if err := insertEvent(ctx, tx, int64(i), e); err != nil {
			return Stats{}, err
		}
		stats.Events++
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("import: commit: %w", err)
	}
	return stats, nil
}

func insertObject(ctx context.Context, tx *sql.Tx, seq int64, o ledger.SnapshotObject) error {
	content, err := marshalPayload(o.Content.Value)
	if err != nil {
		return fmt.Errorf("import object %s: %w", o.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO objects (id, seq, type, owner, owner_norm, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, seq, o.Type, o.Owner, ident.Normalize(o.Owner), content)
	if err != nil {
		return fmt.Errorf("import object %s: %w", o.ID, err)
	}
	return nil
}

func insertTable(ctx context.Context, tx *sql.Tx, t ledger.SnapshotTable) (int, error) {
	if _, err := tx.ExecContext(ctx, `INSERT INTO tables (handle) VALUES (?)`, t.Handle); err != nil {
		return 0, fmt.Errorf("import table %s: %w", t.Handle, err)
	}

	for i, e := range t.Entries {
		key, err := marshalPayload(e.Key.Value)
		if err != nil {
			return 0, fmt.Errorf("import table %s entry %d: %w", t.Handle, i, err)
		}
		var value sql.NullString
		if !e.Value.IsZero() {
			text, err := marshalPayload(e.Value.Value)
			if err != nil {
				return 0, fmt.Errorf("import table %s entry %d: %w", t.Handle, i, err)
			}
			value = sql.NullString{String: text, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO table_entries (handle, seq, key, numeric_key, ref, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.Handle, i, key, numericKey(e.Key.Value), e.Ref, value)
		if err != nil {
			return 0, fmt.Errorf("import table %s entry %d: %w", t.Handle, i, err)
		}
	}
	return len(t.Entries), nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, seq int64, e ledger.SnapshotEvent) error {
	fields, err := marshalPayload(e.Fields.Value)
	if err != nil {
		return fmt.Errorf("import event %d: %w", seq, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (seq, type, timestamp_ms, fields)
		VALUES (?, ?, ?, ?)
	`, seq, e.Type, e.TimestampMs, fields)
	if err != nil {
		return fmt.Errorf("import event %d: %w", seq, err)
	}
	return nil
}

// Stats counts the stored rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM objects),
			(SELECT COUNT(*) FROM tables),
			(SELECT COUNT(*) FROM table_entries),
			(SELECT COUNT(*) FROM events)
	`).Scan(&st.Objects, &st.Tables, &st.Entries, &st.Events)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
