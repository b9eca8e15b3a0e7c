// Package testutil provides test doubles shared by package tests and the
// scenario harness.
package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

// Method names a ledger.Client method for fault injection and call counts.
type Method string

const (
	MethodGetObject           Method = "GetObject"
	MethodGetContainerHandle  Method = "GetContainerHandle"
	MethodListEntries         Method = "ListEntries"
	MethodGetEntryValue       Method = "GetEntryValue"
	MethodQueryCreationEvents Method = "QueryCreationEvents"
	MethodListOwnedObjects    Method = "ListOwnedObjects"
)

// EntryHook runs before GetEntryValue serves a value. A non-nil error is
// returned to the caller instead.
type EntryHook func(ctx context.Context, handleID string, key payload.Value) error

// Ledger is an in-memory ledger.Client.
//
// Object insertion order is preserved for owner scans, table entries keep
// their listed order, and events are stored oldest first. Ledger ignores
// the owner-scan type hint so that callers' own filtering is exercised.
//
// Thread-safety: all methods are safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	objects   map[string]ledger.Object
	order     []string
	tables    map[string][]ledger.SnapshotEntry
	events    []ledger.Event
	faults    map[Method]error
	calls     map[Method]int
	entryHook EntryHook
}

var _ ledger.Client = (*Ledger)(nil)

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		objects: make(map[string]ledger.Object),
		tables:  make(map[string][]ledger.SnapshotEntry),
		faults:  make(map[Method]error),
		calls:   make(map[Method]int),
	}
}

// FromSnapshot creates a ledger preloaded with a snapshot.
func FromSnapshot(s *ledger.Snapshot) *Ledger {
	l := NewLedger()
	for _, o := range s.Objects {
		l.AddObject(o.Object())
	}
	for _, t := range s.Tables {
		l.AddTable(t.Handle, t.Entries...)
	}
	for _, e := range s.Events {
		l.AddEvent(e.Event())
	}
	return l
}

// AddObject stores (or replaces) an object.
func (l *Ledger) AddObject(o ledger.Object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.objects[o.ID]; !exists {
		l.order = append(l.order, o.ID)
	}
	l.objects[o.ID] = o
}

// AddTable appends entries to a table handle, creating it if needed.
func (l *Ledger) AddTable(handle string, entries ...ledger.SnapshotEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables[handle] = append(l.tables[handle], entries...)
}

// AddEvent appends an event (newest last).
func (l *Ledger) AddEvent(e ledger.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Fail makes every subsequent call to method return err. A nil err clears
// the fault.
func (l *Ledger) Fail(method Method, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.faults, method)
		return
	}
	l.faults[method] = err
}

// SetEntryHook installs a hook consulted by GetEntryValue.
func (l *Ledger) SetEntryHook(h EntryHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entryHook = h
}

// Calls returns how many times method has been called.
func (l *Ledger) Calls(method Method) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// enter records a call and returns the injected fault or ctx error, if any.
func (l *Ledger) enter(ctx context.Context, m Method) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[m]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.faults[m]
}

// GetObject implements ledger.Client.
func (l *Ledger) GetObject(ctx context.Context, key string) (ledger.Object, error) {
	if err := l.enter(ctx, MethodGetObject); err != nil {
		return ledger.Object{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.objects[key]
	if !ok {
		return ledger.Object{}, ledger.ErrNotFound
	}
	return o, nil
}

// GetContainerHandle implements ledger.Client.
func (l *Ledger) GetContainerHandle(ctx context.Context, containerObjectID string) (payload.Value, error) {
	if err := l.enter(ctx, MethodGetContainerHandle); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.objects[containerObjectID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return o.Content, nil
}

// ListEntries implements ledger.Client.
func (l *Ledger) ListEntries(ctx context.Context, handleID string, pageSize int) ([]ledger.Entry, error) {
	if err := l.enter(ctx, MethodListEntries); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, ok := l.tables[handleID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	pageSize = ledger.ClampPageSize(pageSize)
	out := make([]ledger.Entry, 0, min(len(entries), pageSize))
	for _, e := range entries {
		if len(out) == pageSize {
			break
		}
		out = append(out, ledger.Entry{Key: e.Key.Value, ValueRef: e.Ref})
	}
	return out, nil
}

// GetEntryValue implements ledger.Client. Keys match by canonical JSON
// equality, or failing that by decoded numeric key.
func (l *Ledger) GetEntryValue(ctx context.Context, handleID string, key payload.Value) (payload.Value, error) {
	if err := l.enter(ctx, MethodGetEntryValue); err != nil {
		return nil, err
	}

	l.mu.Lock()
	hook := l.entryHook
	entries, ok := l.tables[handleID]
	l.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, handleID, key); err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ledger.ErrNotFound
	}

	e, found := ledger.FindEntry(entries, key)
	if !found || e.Value.IsZero() {
		return nil, ledger.ErrNotFound
	}
	return e.Value.Value, nil
}

// QueryCreationEvents implements ledger.Client.
func (l *Ledger) QueryCreationEvents(ctx context.Context, eventType string, limit int, order ledger.Order) ([]ledger.Event, error) {
	if err := l.enter(ctx, MethodQueryCreationEvents); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	events := slices.Clone(l.events)
	if order == ledger.Descending {
		slices.Reverse(events)
	}
	out := make([]ledger.Event, 0, len(events))
	for _, e := range events {
		if limit > 0 && len(out) == limit {
			break
		}
		if ident.TypeMatches(e.Type, eventType) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListOwnedObjects implements ledger.Client. typeFilter is ignored.
func (l *Ledger) ListOwnedObjects(ctx context.Context, ownerID string, typeFilter string) ([]ledger.Object, error) {
	if err := l.enter(ctx, MethodListOwnedObjects); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ledger.Object
	for _, id := range l.order {
		o := l.objects[id]
		if o.Owner != "" && ident.Normalize(o.Owner) == ident.Normalize(ownerID) {
			out = append(out, o)
		}
	}
	return out, nil
}
