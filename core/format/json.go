package format

import (
	"encoding/json"
	"fmt"

	"github.com/kndndrj/statpipe/core"
)

var _ core.Formatter = (*JSON)(nil)

// JSON renders results in the stat response shape:
//
//	{"results": [...], "total_count": n}
type JSON struct {
	indent bool
}

func NewJSON() *JSON {
	return &JSON{}
}

// NewIndentedJSON is NewJSON with two space indentation.
func NewIndentedJSON() *JSON {
	return &JSON{indent: true}
}

type jsonResponse struct {
	Results    []any `json:"results"`
	TotalCount int   `json:"total_count"`
}

func (jf *JSON) parseSchemaFul(header core.Header, rows []core.Row) []any {
	data := make([]any, 0, len(rows))

	for _, row := range rows {
		record := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = nil
			}
		}
		for i := len(header); i < len(row); i++ {
			record[fmt.Sprintf("<unknown-field-%d>", i)] = row[i]
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) parseSchemaLess(rows []core.Row) []any {
	data := make([]any, 0, len(rows))

	for _, row := range rows {
		if len(row) == 1 {
			data = append(data, row[0])
		} else if len(row) > 1 {
			data = append(data, row)
		}
	}
	return data
}

func (jf *JSON) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	if opts == nil {
		opts = &core.FormatterOptions{TotalCount: len(rows)}
	}

	resp := jsonResponse{TotalCount: opts.TotalCount}
	switch opts.SchemaType {
	case core.SchemaLess:
		resp.Results = jf.parseSchemaLess(rows)
	case core.SchemaFul:
		fallthrough
	default:
		resp.Results = jf.parseSchemaFul(header, rows)
	}

	var out []byte
	var err error
	if jf.indent {
		out, err = json.MarshalIndent(resp, "", "  ")
	} else {
		out, err = json.Marshal(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return out, nil
}
