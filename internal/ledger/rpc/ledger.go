package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

var _ ledger.Client = (*Client)(nil)

// GetObject implements ledger.Client. Keys that cannot be object ids (a
// bare table key such as "7") are reported absent without a call.
func (c *Client) GetObject(ctx context.Context, key string) (ledger.Object, error) {
	if !isObjectID(key) {
		return ledger.Object{}, ledger.ErrNotFound
	}
	var out objectResponse
	if err := c.call(ctx, methodGetObject, &out, key, objectOptions); err != nil {
		return ledger.Object{}, err
	}
	if out.Data == nil {
		return ledger.Object{}, ledger.ErrNotFound
	}
	return out.Data.object(), nil
}

// GetContainerHandle implements ledger.Client.
func (c *Client) GetContainerHandle(ctx context.Context, containerObjectID string) (payload.Value, error) {
	obj, err := c.GetObject(ctx, containerObjectID)
	if err != nil {
		return nil, err
	}
	return obj.Content, nil
}

// ListEntries implements ledger.Client. Pages are read until pageSize
// entries are collected or the table is exhausted.
func (c *Client) ListEntries(ctx context.Context, handleID string, pageSize int) ([]ledger.Entry, error) {
	if !isObjectID(handleID) {
		return nil, ledger.ErrNotFound
	}
	pageSize = ledger.ClampPageSize(pageSize)

	var (
		out    []ledger.Entry
		cursor *string
	)
	for len(out) < pageSize {
		var page dynamicFieldPage
		if err := c.call(ctx, methodGetDynamicFields, &page, handleID, cursor, pageSize-len(out)); err != nil {
			return nil, err
		}
		for _, d := range page.Data {
			out = append(out, ledger.Entry{Key: d.Name.Value, ValueRef: d.ObjectID})
		}
		if !page.HasNextPage || page.NextCursor == nil || len(page.Data) == 0 {
			break
		}
		cursor = page.NextCursor
	}
	if len(out) > pageSize {
		out = out[:pageSize]
	}
	return out, nil
}

// GetEntryValue implements ledger.Client.
func (c *Client) GetEntryValue(ctx context.Context, handleID string, enumerationKey payload.Value) (payload.Value, error) {
	if !isObjectID(handleID) {
		return nil, ledger.ErrNotFound
	}
	var out objectResponse
	if err := c.call(ctx, methodGetDynamicFieldObject, &out, handleID, fieldName(enumerationKey)); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ledger.ErrNotFound
	}
	return out.Data.Content.Value, nil
}

// QueryCreationEvents implements ledger.Client. eventType must be fully
// qualified; the node has no partial type filter.
func (c *Client) QueryCreationEvents(ctx context.Context, eventType string, limit int, order ledger.Order) ([]ledger.Event, error) {
	if !qualifiedType(eventType) {
		return nil, fmt.Errorf("rpc: event type %q must be fully qualified (address::module::Name)", eventType)
	}
	if limit <= 0 {
		limit = eventPageSize
	}

	filter := map[string]any{"MoveEventType": eventType}
	descending := order == ledger.Descending

	var (
		out    []ledger.Event
		cursor json.RawMessage
	)
	for len(out) < limit {
		var page eventPage
		var cur any
		if len(cursor) > 0 && string(cursor) != "null" {
			cur = cursor
		}
		if err := c.call(ctx, methodQueryEvents, &page, filter, cur, min(eventPageSize, limit-len(out)), descending); err != nil {
			return nil, err
		}
		for _, e := range page.Data {
			if !ident.TypeMatches(e.Type, eventType) {
				continue
			}
			out = append(out, ledger.Event{
				Type:        e.Type,
				TimestampMs: parseTimestamp(e.TimestampMs),
				Fields:      e.ParsedJSON.Value,
			})
		}
		if !page.HasNextPage || len(page.Data) == 0 {
			break
		}
		cursor = page.NextCursor
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListOwnedObjects implements ledger.Client. A fully qualified typeFilter
// is passed to the node as a StructType filter; anything else is left to
// the caller.
func (c *Client) ListOwnedObjects(ctx context.Context, ownerID string, typeFilter string) ([]ledger.Object, error) {
	if !isObjectID(ownerID) {
		return nil, ledger.ErrNotFound
	}
	query := map[string]any{"options": objectOptions}
	if qualifiedType(typeFilter) {
		query["filter"] = map[string]any{"StructType": typeFilter}
	}

	var (
		out    []ledger.Object
		cursor *string
	)
	for range MaxOwnedPages {
		var page ownedPage
		if err := c.call(ctx, methodGetOwnedObjects, &page, ownerID, query, cursor, nil); err != nil {
			return nil, err
		}
		for _, o := range page.Data {
			if o.Data != nil {
				out = append(out, o.Data.object())
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
	c.logger.Warn("owned object scan truncated",
		slog.String("owner", ownerID),
		slog.Int("pages", MaxOwnedPages),
		slog.Int("objects", len(out)),
	)
	return out, nil
}
