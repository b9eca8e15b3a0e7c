// Package ledger defines the read-only ledger client the resolver consumes.
//
// The resolver never talks to a node directly. It depends on Client, which
// is implemented by:
//   - rpc.Client: JSON-RPC against a full node
//   - store.Store: an offline SQLite snapshot
//   - testutil.Ledger: an in-memory fake for tests
//
// Implementations report absence with ErrNotFound. Any other error is a
// transport failure and aborts resolution.
package ledger

import (
	"context"
	"errors"

	"github.com/roach88/ledgerlens/internal/payload"
)

// ErrNotFound reports that the requested object, entry or handle does not
// exist. It is the only error the resolver treats as ordinary absence.
var ErrNotFound = errors.New("ledger: not found")

// MaxPageSize caps a single ListEntries call.
const MaxPageSize = 200

// Order selects event query ordering.
type Order int

const (
	// Descending returns the most recent events first.
	Descending Order = iota
	// Ascending returns the oldest events first.
	Ascending
)

// String returns "descending" or "ascending".
func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// Object is a ledger object as returned by a keyed fetch or an owner scan.
type Object struct {
	ID      string
	Type    string
	Owner   string
	Content payload.Value
}

// Entry is one dynamic-field entry of a table handle.
type Entry struct {
	// Key is the raw enumeration key: a number, a decimal string, or a
	// {"type": ..., "value": ...} name object.
	Key payload.Value

	// ValueRef is the ledger id of the entry's field object.
	ValueRef string
}

// Event is a creation event emitted when a record was created.
type Event struct {
	Type        string
	TimestampMs int64
	Fields      payload.Value
}

// Client is the read path of a ledger node.
type Client interface {
	// GetObject fetches an object by its key.
	GetObject(ctx context.Context, key string) (Object, error)

	// GetContainerHandle fetches a container object's content so the
	// caller can locate the table handle inside it.
	GetContainerHandle(ctx context.Context, containerObjectID string) (payload.Value, error)

	// ListEntries enumerates up to pageSize entries under a table handle,
	// in the ledger's native order.
	ListEntries(ctx context.Context, handleID string, pageSize int) ([]Entry, error)

	// GetEntryValue fetches the payload stored under enumerationKey.
	GetEntryValue(ctx context.Context, handleID string, enumerationKey payload.Value) (payload.Value, error)

	// QueryCreationEvents returns up to limit events of eventType.
	QueryCreationEvents(ctx context.Context, eventType string, limit int, order Order) ([]Event, error)

	// ListOwnedObjects returns objects owned by ownerID. typeFilter is a
	// hint; callers filter the result themselves.
	ListOwnedObjects(ctx context.Context, ownerID string, typeFilter string) ([]Object, error)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ClampPageSize bounds a requested page size to [1, MaxPageSize].
func ClampPageSize(n int) int {
	if n <= 0 || n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
