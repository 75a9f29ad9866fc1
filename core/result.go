package core

import (
	"encoding/json"
	"fmt"
)

// Result is the paged output of a pipeline run.
type Result struct {
	Table *Table
	// TotalCount is the number of rows before paging.
	TotalCount int
}

type resultPersistent struct {
	Results    []map[string]any `json:"results"`
	TotalCount int              `json:"total_count"`
}

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(&resultPersistent{
		Results:    r.Table.Records(),
		TotalCount: r.TotalCount,
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var alias resultPersistent
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	records := make([]Record, len(alias.Results))
	for i, rec := range alias.Results {
		records[i] = rec
	}
	table, err := TableFromRecords("", nil, records)
	if err != nil {
		return err
	}

	*r = Result{
		Table:      table,
		TotalCount: alias.TotalCount,
	}
	return nil
}

func (r *Result) Len() int {
	return r.Table.Len()
}

func (r *Result) Header() Header {
	return r.Table.Header()
}

func (r *Result) Rows() []Row {
	return r.Table.Rows()
}

// Format renders the result with the given formatter.
func (r *Result) Format(formatter Formatter) ([]byte, error) {
	opts := &FormatterOptions{
		SchemaType: SchemaFul,
		TotalCount: r.TotalCount,
	}

	f, err := formatter.Format(r.Table.Header(), r.Table.Rows(), opts)
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return f, nil
}
