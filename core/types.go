package core

import "errors"

// ErrStreamDrained is returned by RecordStream.Next when no records are left.
var ErrStreamDrained = errors.New("no next record")

type SchemaType int

const (
	SchemaFul SchemaType = iota
	SchemaLess
)

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		SchemaType SchemaType
		TotalCount int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are the building blocks of a Table.
	Row    []any
	Header []string

	// Record is a single element returned by a stat source. It is either a
	// map[string]any (a row object) or a scalar (e.g. a distinct value).
	Record any

	// Meta holds metadata of a record stream
	Meta struct {
		// type of schema (schemaful or schemaless)
		SchemaType SchemaType
		// TotalCount is the count reported by the backend, if any.
		TotalCount *int
	}

	// RecordStream is a result of a stat call and has a form of an iterator.
	// Header is an ordering hint for record fields and may be empty.
	RecordStream interface {
		Meta() *Meta
		Header() Header
		Next() (Record, error)
		HasNext() bool
		Close()
	}
)

// ValueColumn holds scalar records returned by a stat source.
const ValueColumn = "value"

// PageSpec selects a window of the final table. Start is 1-based and Limit
// of zero or less means no limit.
type PageSpec struct {
	Start int `json:"start,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type JoinType string

const (
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinOuter JoinType = "OUTER"
	JoinInner JoinType = "INNER"
)

var joinTypes = []JoinType{JoinLeft, JoinRight, JoinOuter, JoinInner}

// JoinTypeNames lists the accepted join types.
func JoinTypeNames() []string {
	names := make([]string, len(joinTypes))
	for i, jt := range joinTypes {
		names[i] = string(jt)
	}
	return names
}

// Valid reports whether jt is one of the known join types. An empty type is
// valid and means LEFT.
func (jt JoinType) Valid() bool {
	if jt == "" {
		return true
	}
	for _, known := range joinTypes {
		if jt == known {
			return true
		}
	}
	return false
}

// OrDefault returns LEFT for an empty join type.
func (jt JoinType) OrDefault() JoinType {
	if jt == "" {
		return JoinLeft
	}
	return jt
}
