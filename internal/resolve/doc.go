// Package resolve reconstructs canonical Project records from a ledger.
//
// A record may be addressable in up to four ways: as a keyed object, as an
// entry of the registry's table, through the creation event that announced
// it, or among the objects owned by the registry or the requester. Resolver
// tries them in that order and stops at the first hit:
//
//	res, err := resolve.New(client, resolve.Settings{}).Resolve(ctx, id,
//		resolve.Context{RegistryID: registry})
//	switch {
//	case resolve.IsNotFound(err):            // never existed
//	case resolve.IsFoundButUnavailable(err): // existed, payload gone
//	case resolve.IsTransport(err):           // ledger failure, retry the call
//	}
//
// Identifiers are compared with ident.Classify. Every matching step checks
// all of its candidates for an exact match before accepting a suffix match,
// and suffix matches are logged at WARN with audit=suffix_match.
//
// Resolver performs no retries, keeps no cache and starts no background
// goroutines. The only concurrency is the bounded fan-out of entry fetches
// inside the table step, whose results are selected in enumeration order.
package resolve
