package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kndndrj/statpipe/core"
)

var _ core.Formatter = (*CSV)(nil)

type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) parseSchemaFul(header core.Header, rows []core.Row) [][]string {
	data := [][]string{
		header,
	}
	for _, row := range rows {
		csvRow := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				csvRow[i] = cell(row[i])
			}
		}
		data = append(data, csvRow)
	}

	return data
}

func (cf *CSV) Format(header core.Header, rows []core.Row, _ *core.FormatterOptions) ([]byte, error) {
	// parse as if schema is defined regardles of schema presence in the result
	data := cf.parseSchemaFul(header, rows)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	err := w.WriteAll(data)
	if err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}

	return b.Bytes(), nil
}

// cell renders a value for text output. Nulls are empty.
func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
