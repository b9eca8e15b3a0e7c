package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ledgerlens/internal/ledger"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// importTestSnapshot parses src and imports it into a fresh store.
func importTestSnapshot(t *testing.T, src string) *Store {
	t.Helper()
	snap, err := ledger.ParseSnapshot([]byte(src))
	if err != nil {
		t.Fatalf("ParseSnapshot() failed: %v", err)
	}
	s := createTestStore(t)
	if _, err := s.Import(context.Background(), snap); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	return s
}

const testSnapshot = `
objects:
  - id: "0xreg"
    type: "0x2a::marketplace::ProjectRegistry"
    owner: "0xADMIN"
    content:
      fields:
        id: {id: "0xreg"}
        projects:
          type: "0x2::table::Table<u64, 0x2a::marketplace::Project>"
          fields:
            id: {id: "0x7ab1e"}
            size: "2"
  - id: "0xp1"
    type: "0x2a::marketplace::Project"
    owner: "0xadmin"
    content:
      fields: {title: Indexer, project_id: "1"}
  - id: "0xp2"
    type: "0x2a::marketplace::ProjectApplication"
    owner: "admin"
    content:
      fields: {title: Application}
  - id: "0xp3"
    type: "0x2a::marketplace::Project"
    owner: "0xbob"
    content:
      fields: {title: Unrelated}
tables:
  - handle: "0x7ab1e"
    entries:
      - key: {type: u64, value: "7"}
        ref: "0xfield7"
        value:
          fields:
            id: {id: "0xfield7"}
            name: {type: u64, value: "7"}
            value:
              type: "0x2a::marketplace::Project"
              fields: {title: Explorer, budget_max: "18446744073709551615"}
      - key: 8
        ref: "0xfield8"
  - handle: "0xempty"
    entries: []
events:
  - type: "0x2a::marketplace::ProjectCreated"
    timestamp_ms: 1000
    fields: {project_id: "1", title: First}
  - type: "0x2a::marketplace::ProjectCreatedV2"
    timestamp_ms: 2000
    fields: {project_id: "2", title: Second}
  - type: "0x2a::marketplace::ProjectCreated"
    timestamp_ms: 3000
    fields: {project_id: "3", title: Third}
`
