package ledger

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/payload"
)

// Snapshot is a point-in-time export of the ledger state the resolver reads.
// It is the on-disk fixture format for the SQLite store and the test
// harness.
//
//	objects:
//	  - id: "0xreg"
//	    type: "0x2a::marketplace::ProjectRegistry"
//	    owner: "0xadmin"
//	    content: {fields: {projects: {fields: {id: {id: "0xtable"}}}}}
//	tables:
//	  - handle: "0xtable"
//	    entries:
//	      - key: {type: u64, value: "7"}
//	        ref: "0xfield7"
//	        value: {fields: {title: Indexer}}
//	events:
//	  - type: "0x2a::marketplace::ProjectCreated"
//	    timestamp_ms: 1700000000000
//	    fields: {project_id: "7", owner: "0xalice", title: Indexer}
//
// Events are listed oldest first. An entry without a value models a field
// whose object was deleted after enumeration.
type Snapshot struct {
	Objects []SnapshotObject `yaml:"objects"`
	Tables  []SnapshotTable  `yaml:"tables"`
	Events  []SnapshotEvent  `yaml:"events"`
}

// SnapshotObject is one keyed ledger object.
type SnapshotObject struct {
	ID      string      `yaml:"id"`
	Type    string      `yaml:"type"`
	Owner   string      `yaml:"owner,omitempty"`
	Content payload.Doc `yaml:"content"`
}

// SnapshotTable is a table handle and its entries in native order.
type SnapshotTable struct {
	Handle  string          `yaml:"handle"`
	Entries []SnapshotEntry `yaml:"entries"`
}

// SnapshotEntry is one table entry.
type SnapshotEntry struct {
	Key   payload.Doc `yaml:"key"`
	Ref   string      `yaml:"ref,omitempty"`
	Value payload.Doc `yaml:"value,omitempty"`
}

// SnapshotEvent is one creation event.
type SnapshotEvent struct {
	Type        string      `yaml:"type"`
	TimestampMs int64       `yaml:"timestamp_ms,omitempty"`
	Fields      payload.Doc `yaml:"fields"`
}

// Object converts the fixture form to a ledger Object.
func (o SnapshotObject) Object() Object {
	return Object{ID: o.ID, Type: o.Type, Owner: o.Owner, Content: o.Content.Value}
}

// Event converts the fixture form to a ledger Event.
func (e SnapshotEvent) Event() Event {
	return Event{Type: e.Type, TimestampMs: e.TimestampMs, Fields: e.Fields.Value}
}

// ParseSnapshot decodes a YAML snapshot and validates it.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSnapshot reads and parses a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks structural constraints: object ids and table handles are
// non-empty and unique, every entry has a key.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Objects))
	for i, o := range s.Objects {
		if o.ID == "" {
			return fmt.Errorf("objects[%d]: id is required", i)
		}
		if seen[o.ID] {
			return fmt.Errorf("objects[%d]: duplicate id %q", i, o.ID)
		}
		seen[o.ID] = true
	}

	handles := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		if t.Handle == "" {
			return fmt.Errorf("tables[%d]: handle is required", i)
		}
		if handles[t.Handle] {
			return fmt.Errorf("tables[%d]: duplicate handle %q", i, t.Handle)
		}
		handles[t.Handle] = true
		for j, e := range t.Entries {
			if e.Key.IsZero() {
				return fmt.Errorf("tables[%d].entries[%d]: key is required", i, j)
			}
		}
	}

	for i, e := range s.Events {
		if e.Type == "" {
			return fmt.Errorf("events[%d]: type is required", i)
		}
	}
	return nil
}

// FindEntry locates the entry stored under key: canonical JSON equality
// first, then equality of decoded numeric keys.
func FindEntry(entries []SnapshotEntry, key payload.Value) (SnapshotEntry, bool) {
	want, err := payload.MarshalCanonical(key)
	if err == nil {
		for _, e := range entries {
			got, err := payload.MarshalCanonical(e.Key.Value)
			if err == nil && bytes.Equal(got, want) {
				return e, true
			}
		}
	}

	k, ok := decode.EnumerationKey(key)
	if !ok {
		return SnapshotEntry{}, false
	}
	for _, e := range entries {
		if ek, ok := decode.EnumerationKey(e.Key.Value); ok && ek == k {
			return e, true
		}
	}
	return SnapshotEntry{}, false
}
