package builders

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kndndrj/statpipe/core"
)

// default sql client used by the sql stat sources
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
	}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() {
	c.db.Close()
}

func (c *Client) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		valb, ok := val.([]byte)
		if ok {
			return string(valb)
		}
		return val
	}
}

// Query executes a query and returns a record stream. Records are core.Row
// values aligned to the stream header.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*RecordStream, error) {
	dbRows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	header, err := dbRows.Columns()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}
	procs := make([]func(any) any, len(dbCols))
	for i := range dbCols {
		procs[i] = c.getTypeProcessor(dbCols[i].DatabaseTypeName())
	}

	// advanced is set when dbRows points to an unread row
	advanced := false
	hasNextFunc := func() bool {
		if !advanced {
			advanced = dbRows.Next()
		}
		// report the iteration error through next
		return advanced || dbRows.Err() != nil
	}

	nextFunc := func() (core.Record, error) {
		if !hasNextFunc() {
			return nil, core.ErrStreamDrained
		}
		if !advanced {
			return nil, dbRows.Err()
		}
		advanced = false

		columns := make([]any, len(dbCols))
		columnPointers := make([]any, len(dbCols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range dbCols {
			row[i] = procs[i](columns[i])
		}

		return row, nil
	}

	stream := NewRecordStreamBuilder().
		WithNextFunc(nextFunc, hasNextFunc).
		WithHeader(header).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return stream, nil
}
