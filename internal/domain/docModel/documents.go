package docModel

import "context"

type Kind string

const (
	KindOperation   Kind = "operation"
	KindParameter   Kind = "parameter"
	KindRequestBody Kind = "requestBody"
	KindResponse    Kind = "response"
	KindSchema      Kind = "schema"
	KindNote        Kind = "note"
)

// RepKind is one of the derived texts produced per document.
type RepKind string

const (
	RepSummary RepKind = "summary"
	RepHyde    RepKind = "hyde"
	RepExample RepKind = "example"
)

// RepKinds is the fixed generation order for the three representations.
var RepKinds = []RepKind{RepSummary, RepHyde, RepExample}

type Metadata map[string]any

// Document is an atomic unit of API knowledge. Every document except
// kind=note carries api_name and spec_hash in its metadata.
type Document struct {
	Content  string   `json:"content"`
	Kind     Kind     `json:"kind"`
	Metadata Metadata `json:"metadata"`
}

// OperationID returns the operationId metadata entry, empty when absent.
func (d Document) OperationID() string {
	if v, ok := d.Metadata["operationId"].(string); ok {
		return v
	}
	return ""
}

// Compact drops keys whose value is nil, an empty string, an empty slice
// or an empty map, keeping the metadata footprint comparison-stable.
func (m Metadata) Compact() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if isEmptyValue(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// DocStore holds full parent/child document bodies keyed by identifier
// within a collection scope. Put is an idempotent overwrite.
type DocStore interface {
	Put(ctx context.Context, collection string, id string, doc Document) error
	GetMany(ctx context.Context, collection string, ids []string) ([]Document, error)
}
