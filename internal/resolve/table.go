package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

// maxHandleDepth bounds how many wrapper levels handle extraction unwraps.
const maxHandleDepth = 4

// tableEntry is one enumerated entry with its fetched value.
type tableEntry struct {
	entry ledger.Entry
	attrs decode.Attributes

	// usable is true when the value was fetched and decoded to a record.
	usable bool

	enumKey    uint64
	hasEnumKey bool

	corrKey    uint64
	hasCorrKey bool
}

// candidates lists the identifiers the entry answers to.
func (e *tableEntry) candidates() []candidate {
	var out []candidate
	if e.attrs.ObjectID != "" {
		out = append(out, candidate{SourceObjectID, e.attrs.ObjectID})
	}
	if e.attrs.HasKey {
		out = append(out, candidate{SourceEmbeddedKey, decode.FormatKey(e.attrs.Key)})
	}
	out = append(out, e.addressCandidates()...)
	if e.hasCorrKey {
		out = append(out, candidate{SourceCorrelatedKey, decode.FormatKey(e.corrKey)})
	}
	return out
}

// addressCandidates are the identifiers known without fetching the value.
func (e *tableEntry) addressCandidates() []candidate {
	var out []candidate
	if e.hasEnumKey {
		out = append(out, candidate{SourceEnumerationKey, decode.FormatKey(e.enumKey)})
	}
	if e.entry.ValueRef != "" {
		out = append(out, candidate{SourceEntryRef, e.entry.ValueRef})
	}
	return out
}

// key picks the record's numeric key: embedded, then enumeration, then
// correlated.
func (e *tableEntry) key() *uint64 {
	switch {
	case e.attrs.HasKey:
		return keyPtr(e.attrs.Key)
	case e.hasEnumKey:
		return keyPtr(e.enumKey)
	case e.hasCorrKey:
		return keyPtr(e.corrKey)
	}
	return nil
}

// tryTable enumerates the registry's table and matches id against every
// entry's candidates.
func (r *Resolver) tryTable(ctx context.Context, a *attempt) (*Record, ident.MatchKind, error) {
	content, err := r.client.GetContainerHandle(ctx, a.rc.RegistryID)
	if ledger.IsNotFound(err) {
		return nil, ident.MatchNone, nil
	}
	if err != nil {
		return nil, ident.MatchNone, err
	}

	handle, err := tableHandle(a.rc.RegistryID, content, r.settings.TableField)
	if err != nil {
		return nil, ident.MatchNone, err
	}
	a.handle = handle

	entries, err := r.client.ListEntries(ctx, handle, r.settings.PageSize)
	if ledger.IsNotFound(err) {
		return nil, ident.MatchNone, nil
	}
	if err != nil {
		return nil, ident.MatchNone, err
	}

	fetched, err := r.fetchEntries(ctx, handle, entries)
	if err != nil {
		return nil, ident.MatchNone, err
	}

	usable := make([]*tableEntry, 0, len(fetched))
	for _, e := range fetched {
		if !e.usable {
			if anyMatch(a.id, e.addressCandidates()) {
				a.markUnavailable("table entry %s has no decodable value", describeEntry(e.entry))
			}
			continue
		}
		if !e.attrs.HasKey && e.attrs.Owner != "" && e.attrs.Title != "" {
			events, err := r.loadEvents(ctx, a)
			if err != nil {
				return nil, ident.MatchNone, err
			}
			e.corrKey, e.hasCorrKey = r.correlate(a, e.attrs.Owner, e.attrs.Title, events)
		}
		usable = append(usable, e)
	}

	i, c, kind := pick(a.id, usable, (*tableEntry).candidates)
	if i < 0 {
		return nil, ident.MatchNone, nil
	}
	if kind == ident.MatchSuffix {
		a.warnSuffix(StepTable, c.source, c.value)
	}

	e := usable[i]
	id := e.attrs.ObjectID
	if id == "" {
		id = e.entry.ValueRef
	}
	if id == "" {
		id = a.id
	}
	a.logger.Debug("table entry selected",
		slog.Int("index", i),
		slog.String("source", c.source),
		slog.String("candidate", c.value),
	)
	return newRecord(id, e.key(), e.attrs), kind, nil
}

// fetchEntries fetches and decodes every entry's value with bounded
// concurrency. Results keep enumeration order. Any transport failure or
// cancellation discards the whole page, and no further fetches start.
func (r *Resolver) fetchEntries(ctx context.Context, handle string, entries []ledger.Entry) ([]*tableEntry, error) {
	out := make([]*tableEntry, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.settings.FanOut)
	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e := &tableEntry{entry: entry}
			e.enumKey, e.hasEnumKey = decode.EnumerationKey(entry.Key)

			v, err := r.client.GetEntryValue(gctx, handle, entry.Key)
			switch {
			case ledger.IsNotFound(err):
			case err != nil:
				return fmt.Errorf("entry %s: %w", describeEntry(entry), err)
			default:
				e.attrs = decode.Decode(v)
				e.usable = !e.attrs.Empty()
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// tableHandle locates the table handle under field in the registry content.
// Accepted shapes, each optionally under a "fields" wrapper:
//
//	"0xhandle"
//	{"id": "0xhandle"}
//	{"id": {"id": "0xhandle"}}
//
// Anything else is a MALFORMED_CONTAINER error.
func tableHandle(registryID string, content payload.Value, field string) (string, error) {
	obj, _ := decode.Unwrap(content)
	if obj == nil {
		return "", newMalformedContainerError(registryID, "registry content has no fields")
	}
	v, ok := obj.Get(field)
	if !ok {
		return "", newMalformedContainerError(registryID, fmt.Sprintf("registry has no %q attribute", field))
	}
	handle, ok := handleID(v)
	if !ok {
		return "", newMalformedContainerError(registryID, fmt.Sprintf("registry attribute %q has no recognizable handle", field))
	}
	return handle, nil
}

func handleID(v payload.Value) (string, bool) {
	for range maxHandleDepth {
		switch val := v.(type) {
		case payload.String:
			s := strings.TrimSpace(string(val))
			if s == "" || strings.ContainsAny(s, " \t\n") {
				return "", false
			}
			return s, true
		case payload.Object:
			if inner, ok := val.Object("fields"); ok {
				v = inner
				continue
			}
			inner, ok := val.Get("id")
			if !ok {
				return "", false
			}
			v = inner
		default:
			return "", false
		}
	}
	return "", false
}

func describeEntry(e ledger.Entry) string {
	if e.ValueRef != "" {
		return e.ValueRef
	}
	if b, err := payload.MarshalCanonical(e.Key); err == nil {
		return string(b)
	}
	return "?"
}
