package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

func created(key payload.Value, owner, title string) ledger.Event {
	fields := payload.Object{"owner": str(owner), "title": str(title)}
	if key != nil {
		fields["project_id"] = key
	}
	return ledger.Event{Type: createdType, Fields: fields}
}

func TestCorrelate(t *testing.T) {
	events := []ledger.Event{
		created(num("30"), "0xalice", "Indexer"),
		created(nil, "0xbob", "Wallet"),
		created(str("20"), "0xbob", "Wallet"),
		created(num("10"), "0xalice", "Indexer"),
	}

	tests := []struct {
		name   string
		owner  string
		title  string
		want   uint64
		wantOK bool
	}{
		{"most recent of duplicates wins", "0xalice", "Indexer", 30, true},
		{"keyless event skipped", "0xbob", "Wallet", 20, true},
		{"owner compared normalized", "0XALICE", "Indexer", 30, true},
		{"title compared exactly", "0xalice", "indexer", 0, false},
		{"unknown owner", "0xcarol", "Indexer", 0, false},
		{"empty owner", "", "Indexer", 0, false},
		{"empty title", "0xalice", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Correlate(tt.owner, tt.title, events)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrelate_CountsAmbiguity(t *testing.T) {
	events := []ledger.Event{
		created(num("2"), "0xa", "Same"),
		created(num("1"), "0xa", "Same"),
	}
	key, ok, matches := correlate("0xa", "Same", events)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), key)
	assert.Equal(t, 2, matches)
}
