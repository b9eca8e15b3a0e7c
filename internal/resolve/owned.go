package resolve

import (
	"context"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
)

// scanOwned lists objects owned by ownerID whose type matches typeFilter
// and decodes them. Objects that do not decode are dropped. At most
// OwnedScanLimit objects are considered.
func (r *Resolver) scanOwned(ctx context.Context, ownerID, typeFilter string) ([]*Record, error) {
	objs, err := r.client.ListOwnedObjects(ctx, ownerID, typeFilter)
	if ledger.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(objs) > r.settings.OwnedScanLimit {
		objs = objs[:r.settings.OwnedScanLimit]
	}

	var out []*Record
	for _, obj := range objs {
		if !ident.TypeMatches(obj.Type, typeFilter) {
			continue
		}
		attrs := decode.Decode(obj.Content)
		if attrs.Empty() {
			continue
		}
		id := obj.ID
		if id == "" {
			id = attrs.ObjectID
		}
		if id == "" {
			continue
		}
		out = append(out, newRecord(id, nil, attrs))
	}
	return out, nil
}

// ownedBy returns the cascade step scanning ownerID's objects.
func (r *Resolver) ownedBy(step, ownerID string) stepFunc {
	return func(ctx context.Context, a *attempt) (*Record, ident.MatchKind, error) {
		records, err := r.scanOwned(ctx, ownerID, r.settings.RecordType)
		if err != nil {
			return nil, ident.MatchNone, err
		}

		i, c, kind := pick(a.id, records, recordCandidates)
		if i < 0 {
			return nil, ident.MatchNone, nil
		}
		if kind == ident.MatchSuffix {
			a.warnSuffix(step, c.source, c.value)
		}
		return records[i], kind, nil
	}
}

func recordCandidates(rec *Record) []candidate {
	out := []candidate{{SourceObjectID, rec.ID}}
	if rec.Key != nil {
		out = append(out, candidate{SourceEmbeddedKey, decode.FormatKey(*rec.Key)})
	}
	return out
}
