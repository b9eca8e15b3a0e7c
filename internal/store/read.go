package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

var _ ledger.Client = (*Store)(nil)

// GetObject implements ledger.Client.
func (s *Store) GetObject(ctx context.Context, key string) (ledger.Object, error) {
	var (
		o       = ledger.Object{ID: key}
		content string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT type, owner, content FROM objects WHERE id = ?
	`, key).Scan(&o.Type, &o.Owner, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Object{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Object{}, fmt.Errorf("get object %s: %w", key, err)
	}

	o.Content, err = unmarshalPayload(content)
	if err != nil {
		return ledger.Object{}, fmt.Errorf("get object %s: %w", key, err)
	}
	return o, nil
}

// GetContainerHandle implements ledger.Client.
func (s *Store) GetContainerHandle(ctx context.Context, containerObjectID string) (payload.Value, error) {
	o, err := s.GetObject(ctx, containerObjectID)
	if err != nil {
		return nil, err
	}
	return o.Content, nil
}

// ListEntries implements ledger.Client.
func (s *Store) ListEntries(ctx context.Context, handleID string, pageSize int) ([]ledger.Entry, error) {
	if err := s.requireTable(ctx, handleID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, ref FROM table_entries
		WHERE handle = ?
		ORDER BY seq ASC
		LIMIT ?
	`, handleID, ledger.ClampPageSize(pageSize))
	if err != nil {
		return nil, fmt.Errorf("list entries %s: %w", handleID, err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var key, ref string
		if err := rows.Scan(&key, &ref); err != nil {
			return nil, fmt.Errorf("list entries %s: %w", handleID, err)
		}
		k, err := unmarshalPayload(key)
		if err != nil {
			return nil, fmt.Errorf("list entries %s: %w", handleID, err)
		}
		out = append(out, ledger.Entry{Key: k, ValueRef: ref})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries %s: %w", handleID, err)
	}
	return out, nil
}

// GetEntryValue implements ledger.Client. The key matches by canonical JSON
// first, then by decoded numeric key. An entry stored without a value is
// absent.
func (s *Store) GetEntryValue(ctx context.Context, handleID string, enumerationKey payload.Value) (payload.Value, error) {
	if err := s.requireTable(ctx, handleID); err != nil {
		return nil, err
	}

	key, err := marshalPayload(enumerationKey)
	if err != nil {
		return nil, fmt.Errorf("get entry value %s: %w", handleID, err)
	}

	var value sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM table_entries
		WHERE handle = ? AND key = ?
		ORDER BY seq ASC
		LIMIT 1
	`, handleID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		value, err = s.entryByNumericKey(ctx, handleID, enumerationKey)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry value %s: %w", handleID, err)
	}
	if !value.Valid {
		return nil, ledger.ErrNotFound
	}

	v, err := unmarshalPayload(value.String)
	if err != nil {
		return nil, fmt.Errorf("get entry value %s: %w", handleID, err)
	}
	return v, nil
}

func (s *Store) entryByNumericKey(ctx context.Context, handleID string, key payload.Value) (sql.NullString, error) {
	k, ok := decode.EnumerationKey(key)
	if !ok {
		return sql.NullString{}, sql.ErrNoRows
	}
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM table_entries
		WHERE handle = ? AND numeric_key = ?
		ORDER BY seq ASC
		LIMIT 1
	`, handleID, decode.FormatKey(k)).Scan(&value)
	return value, err
}

func (s *Store) requireTable(ctx context.Context, handleID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE handle = ?`, handleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup table %s: %w", handleID, err)
	}
	return nil
}

// QueryCreationEvents implements ledger.Client. eventType is matched with
// ident.TypeMatches, so partial type names work offline.
func (s *Store) QueryCreationEvents(ctx context.Context, eventType string, limit int, order ledger.Order) ([]ledger.Event, error) {
	query := `SELECT type, timestamp_ms, fields FROM events ORDER BY seq DESC`
	if order == ledger.Ascending {
		query = `SELECT type, timestamp_ms, fields FROM events ORDER BY seq ASC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []ledger.Event
	for rows.Next() {
		if limit > 0 && len(out) == limit {
			break
		}
		var (
			e      ledger.Event
			fields string
		)
		if err := rows.Scan(&e.Type, &e.TimestampMs, &fields); err != nil {
			return nil, fmt.Errorf("query events: %w", err)
		}
		if !ident.TypeMatches(e.Type, eventType) {
			continue
		}
		if e.Fields, err = unmarshalPayload(fields); err != nil {
			return nil, fmt.Errorf("query events: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return out, nil
}

// ListOwnedObjects implements ledger.Client. Owners compare by normalized
// id; typeFilter is applied with ident.TypeMatches.
func (s *Store) ListOwnedObjects(ctx context.Context, ownerID string, typeFilter string) ([]ledger.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, owner, content FROM objects
		WHERE owner_norm = ? AND owner_norm != ''
		ORDER BY seq ASC
	`, ident.Normalize(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list owned objects: %w", err)
	}
	defer rows.Close()

	var out []ledger.Object
	for rows.Next() {
		var (
			o       ledger.Object
			content string
		)
		if err := rows.Scan(&o.ID, &o.Type, &o.Owner, &content); err != nil {
			return nil, fmt.Errorf("list owned objects: %w", err)
		}
		if !ident.TypeMatches(o.Type, typeFilter) {
			continue
		}
		if o.Content, err = unmarshalPayload(content); err != nil {
			return nil, fmt.Errorf("list owned objects: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owned objects: %w", err)
	}
	return out, nil
}
