package resolve

import (
	"context"
	"log/slog"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/ident"
	"github.com/roach88/ledgerlens/internal/ledger"
)

// tryDirect fetches id as an object key. Absence, a foreign type or an
// undecodable payload are all misses.
func (r *Resolver) tryDirect(ctx context.Context, a *attempt) (*Record, ident.MatchKind, error) {
	obj, err := r.client.GetObject(ctx, a.id)
	if ledger.IsNotFound(err) {
		return nil, ident.MatchNone, nil
	}
	if err != nil {
		return nil, ident.MatchNone, err
	}

	if !ident.TypeMatches(obj.Type, r.settings.RecordType) {
		a.logger.Debug("direct object has foreign type",
			slog.String("type", obj.Type),
			slog.String("want", r.settings.RecordType),
		)
		return nil, ident.MatchNone, nil
	}

	attrs := decode.Decode(obj.Content)
	if attrs.Empty() {
		return nil, ident.MatchNone, nil
	}

	id := obj.ID
	if id == "" {
		id = a.id
	}
	return newRecord(id, nil, attrs), ident.MatchExact, nil
}
