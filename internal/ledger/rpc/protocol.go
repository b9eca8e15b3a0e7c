package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/payload"
)

// JSON-RPC method names served by a full node.
const (
	methodGetObject             = "sui_getObject"
	methodGetDynamicFields      = "suix_getDynamicFields"
	methodGetDynamicFieldObject = "suix_getDynamicFieldObject"
	methodQueryEvents           = "suix_queryEvents"
	methodGetOwnedObjects       = "suix_getOwnedObjects"
)

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// response is a JSON-RPC 2.0 response. Exactly one of Result or Error is
// set.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc: error %d: %s", e.Code, e.Message)
}

// objectOptions asks the node for everything the resolver decodes.
var objectOptions = map[string]bool{
	"showType":    true,
	"showOwner":   true,
	"showContent": true,
}

// objectResponse is the node's rendering of one object, or of why it is
// missing.
type objectResponse struct {
	Data  *objectData  `json:"data"`
	Error *objectError `json:"error"`
}

type objectData struct {
	ObjectID string      `json:"objectId"`
	Type     string      `json:"type"`
	Owner    payload.Doc `json:"owner"`
	Content  payload.Doc `json:"content"`
}

// objectError reports an absent object ("notExists", "deleted",
// "dynamicFieldNotFound", ...).
type objectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id"`
}

func (o objectData) object() ledger.Object {
	typ := o.Type
	if typ == "" {
		if c, ok := o.Content.Value.(payload.Object); ok {
			typ, _ = payload.Text(c["type"])
		}
	}
	return ledger.Object{
		ID:      o.ObjectID,
		Type:    typ,
		Owner:   ownerAddress(o.Owner.Value),
		Content: o.Content.Value,
	}
}

// ownerAddress reads {"AddressOwner": "0x.."} or {"ObjectOwner": "0x.."}.
// Shared and immutable objects have no owning address.
func ownerAddress(v payload.Value) string {
	obj, ok := v.(payload.Object)
	if !ok {
		return ""
	}
	if s, _, ok := obj.First("AddressOwner", "ObjectOwner"); ok {
		if text, ok := payload.Text(s); ok {
			return text
		}
	}
	return ""
}

type dynamicFieldPage struct {
	Data []struct {
		Name     payload.Doc `json:"name"`
		ObjectID string      `json:"objectId"`
	} `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type eventPage struct {
	Data []struct {
		Type        string      `json:"type"`
		ParsedJSON  payload.Doc `json:"parsedJson"`
		TimestampMs string      `json:"timestampMs"`
	} `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}

type ownedPage struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

func parseTimestamp(s string) int64 {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// qualifiedType reports whether t names a full "address::module::Name"
// type, which is what the node's server-side type filters require.
func qualifiedType(t string) bool {
	t = strings.TrimSpace(t)
	return strings.HasPrefix(t, "0x") && strings.Count(t, "::") >= 2
}

// isObjectID reports whether s can be an object id. The node rejects
// anything else as invalid params, which for a lookup means absence.
func isObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	hex := s[2:]
	if hex == "" || len(hex) > 64 {
		return false
	}
	for _, r := range hex {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// fieldName renders an enumeration key as a dynamic-field name. Names the
// node returned are passed through; bare numbers become u64 names.
func fieldName(key payload.Value) any {
	if obj, ok := key.(payload.Object); ok {
		if _, hasType := obj["type"]; hasType {
			return payload.ToAny(obj)
		}
	}
	text, _ := payload.Text(key)
	return map[string]any{"type": "u64", "value": strings.TrimSpace(text)}
}
