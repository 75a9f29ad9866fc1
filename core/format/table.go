package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kndndrj/statpipe/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders results as a borderless text table with a row index column.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	tableHeaders := table.Row{""}
	for _, k := range header {
		tableHeaders = append(tableHeaders, k)
	}

	var tableRows []table.Row
	for i, row := range rows {
		indexedRow := table.Row{i + 1}
		for j := range header {
			var v any
			if j < len(row) {
				v = row[j]
			}
			indexedRow = append(indexedRow, cell(v))
		}
		tableRows = append(tableRows, indexedRow)
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeaders)
	t.AppendRows(tableRows)
	if opts != nil && opts.TotalCount > len(rows) {
		t.AppendFooter(table.Row{"", "showing", len(rows), "of", opts.TotalCount})
	}
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()
	render := t.Render()

	return []byte(render), nil
}
