package resolve

import (
	"context"
	"log/slog"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

// Correlate returns the numeric key of the first creation event whose owner
// and title equal the given ones. Events are taken in the given order, most
// recent first as queried by the resolver. Owners compare by normalized
// form and titles byte for byte. Events without an embedded key are
// skipped.
//
// Two events with the same owner and title are not told apart: the first
// one in order wins.
func Correlate(owner, title string, events []ledger.Event) (uint64, bool) {
	key, ok, _ := correlate(owner, title, events)
	return key, ok
}

// correlate is Correlate that also counts the matching events.
func correlate(owner, title string, events []ledger.Event) (uint64, bool, int) {
	owner = ident.Normalize(owner)
	if owner == "" || title == "" {
		return 0, false, 0
	}

	var (
		key     uint64
		found   bool
		matches int
	)
	for _, ev := range events {
		attrs := decode.Decode(ev.Fields)
		if !attrs.HasKey || attrs.Title != title || ident.Normalize(attrs.Owner) != owner {
			continue
		}
		matches++
		if !found {
			key, found = attrs.Key, true
		}
	}
	return key, found, matches
}

// correlate runs Correlate and logs ambiguous correlations.
func (r *Resolver) correlate(a *attempt, owner, title string, events []ledger.Event) (uint64, bool) {
	key, ok, matches := correlate(owner, title, events)
	if matches > 1 {
		a.logger.Debug("ambiguous owner+title correlation",
			slog.String("owner", owner),
			slog.String("title", title),
			slog.Int("matches", matches),
			slog.Uint64("chosen_key", key),
		)
	}
	return key, ok
}

// loadEvents queries the creation-event window once per attempt.
func (r *Resolver) loadEvents(ctx context.Context, a *attempt) ([]ledger.Event, error) {
	if a.eventsLoaded {
		return a.events, nil
	}
	events, err := r.client.QueryCreationEvents(ctx, r.settings.CreationEventType, r.settings.EventWindow, ledger.Descending)
	if ledger.IsNotFound(err) {
		events, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.events, a.eventsLoaded = events, true
	return events, nil
}

// eventCandidates lists the identifiers a creation event names.
func eventCandidates(attrs decode.Attributes) []candidate {
	var out []candidate
	if attrs.ObjectID != "" {
		out = append(out, candidate{SourceObjectID, attrs.ObjectID})
	}
	if attrs.HasKey {
		out = append(out, candidate{SourceEmbeddedKey, decode.FormatKey(attrs.Key)})
	}
	return out
}

// entryKey is the enumeration key the table stores numeric keys under.
func entryKey(k uint64) payload.Value {
	return payload.Object{
		"type":  payload.String("u64"),
		"value": payload.String(decode.FormatKey(k)),
	}
}

// tryEvent finds the creation event naming id and fetches the entry value
// under the event's own key. An event without a key is correlated by owner
// and title to a sibling event that has one. Finding
// the event without a decodable payload marks the record unavailable.
func (r *Resolver) tryEvent(ctx context.Context, a *attempt) (*Record, ident.MatchKind, error) {
	events, err := r.loadEvents(ctx, a)
	if err != nil {
		return nil, ident.MatchNone, err
	}

	decoded := make([]decode.Attributes, len(events))
	for i, ev := range events {
		decoded[i] = decode.Decode(ev.Fields)
	}
	i, c, kind := pick(a.id, decoded, eventCandidates)
	if i < 0 {
		return nil, ident.MatchNone, nil
	}
	if kind == ident.MatchSuffix {
		a.warnSuffix(StepEvent, c.source, c.value)
	}
	ev := decoded[i]

	key, ok := ev.Key, ev.HasKey
	if !ok {
		key, ok = r.correlate(a, ev.Owner, ev.Title, events)
	}
	if !ok {
		a.markUnavailable("creation event found but owner and title correlate to no key")
		return nil, ident.MatchNone, nil
	}

	parent := a.handle
	if parent == "" {
		parent = a.rc.RegistryID
	}
	if parent == "" {
		a.markUnavailable("creation event found for key %d but no registry to read it from", key)
		return nil, ident.MatchNone, nil
	}

	v, err := r.client.GetEntryValue(ctx, parent, entryKey(key))
	if ledger.IsNotFound(err) {
		a.markUnavailable("creation event found for key %d but its entry is gone", key)
		return nil, ident.MatchNone, nil
	}
	if err != nil {
		return nil, ident.MatchNone, err
	}

	attrs := decode.Decode(v)
	if attrs.Empty() {
		a.markUnavailable("creation event found for key %d but its entry does not decode", key)
		return nil, ident.MatchNone, nil
	}

	id := attrs.ObjectID
	if id == "" {
		id = ev.ObjectID
	}
	if id == "" {
		id = a.id
	}
	return newRecord(id, keyPtr(key), attrs), kind, nil
}
