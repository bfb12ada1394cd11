package suitecrm

import (
	"bytes"
	"encoding/json"
	"math"
)

// Record is a single SuiteCRM bean as returned by the V8 API.
type Record struct {
	Type          string                 `json:"type"                    yaml:"type"`
	ID            string                 `json:"id"                      yaml:"id"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"    yaml:"attributes,omitempty"`
	Relationships map[string]interface{} `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Links         map[string]interface{} `json:"links,omitempty"         yaml:"links,omitempty"`
}

// Attribute returns the named attribute rendered as a string, or "" if absent.
func (r *Record) Attribute(name string) string {
	if r == nil || r.Attributes == nil {
		return ""
	}

	value, ok := r.Attributes[name]
	if !ok || value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	return string(encoded)
}

// Clone returns a copy of r that shares no maps or slices with it.
func (r Record) Clone() Record {
	r.Attributes = cloneMap(r.Attributes)
	r.Relationships = cloneMap(r.Relationships)
	r.Links = cloneMap(r.Links)

	return r
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	cloned := make(map[string]interface{}, len(m))
	for key, value := range m {
		cloned[key] = cloneValue(value)
	}

	return cloned
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return cloneMap(v)
	case []interface{}:
		cloned := make([]interface{}, len(v))
		for i, item := range v {
			cloned[i] = cloneValue(item)
		}

		return cloned
	default:
		return v
	}
}

// Document is a decoded JSON:API response envelope.
type Document struct {
	Data   json.RawMessage        `json:"data,omitempty"   yaml:"-"`
	Meta   map[string]interface{} `json:"meta,omitempty"   yaml:"meta,omitempty"`
	Links  map[string]interface{} `json:"links,omitempty"  yaml:"links,omitempty"`
	Errors json.RawMessage        `json:"errors,omitempty" yaml:"-"`

	// StatusCode is the HTTP status the document was received with.
	StatusCode int `json:"-" yaml:"status_code,omitempty"`
}

// DataKind classifies the shape of a document's data member.
type DataKind int

// Data shapes.
const (
	DataEmpty DataKind = iota
	DataObject
	DataArray
	DataMalformed
)

// DataKind reports the shape of the data member without decoding it.
func (d *Document) DataKind() DataKind {
	if d == nil {
		return DataEmpty
	}

	trimmed := bytes.TrimSpace(d.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DataEmpty
	}

	switch trimmed[0] {
	case '{':
		if bytes.Equal(trimmed, []byte("{}")) {
			return DataEmpty
		}

		return DataObject
	case '[':
		if bytes.Equal(bytes.Join(bytes.Fields(trimmed), nil), []byte("[]")) {
			return DataEmpty
		}

		return DataArray
	default:
		return DataMalformed
	}
}

// TotalPages returns meta.total-pages when the server supplied it.
func (d *Document) TotalPages() (int, bool) {
	if d == nil || d.Meta == nil {
		return 0, false
	}

	switch value := d.Meta["total-pages"].(type) {
	case float64:
		return int(math.Round(value)), true
	case int:
		return value, true
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return 0, false
		}

		return int(n), true
	default:
		return 0, false
	}
}

// ResultKind describes what a Result carries.
type ResultKind int

// Result kinds.
const (
	// ResultPassthrough carries the original document unchanged.
	ResultPassthrough ResultKind = iota
	// ResultRecord carries a single unwrapped record.
	ResultRecord
	// ResultList carries a list of unwrapped records.
	ResultList
)

// String implements fmt.Stringer.
func (k ResultKind) String() string {
	switch k {
	case ResultRecord:
		return "record"
	case ResultList:
		return "list"
	default:
		return "passthrough"
	}
}

// Result is what a module lookup returns: one record, a list of records, or
// the raw document when the envelope held neither.
type Result struct {
	Kind     ResultKind
	Record   *Record
	Records  []Record
	Document *Document
}

// Items returns the records carried by the result regardless of its kind.
func (r *Result) Items() []Record {
	if r == nil {
		return nil
	}

	switch r.Kind {
	case ResultRecord:
		if r.Record == nil {
			return nil
		}

		return []Record{*r.Record}
	case ResultList:
		return r.Records
	default:
		return nil
	}
}
