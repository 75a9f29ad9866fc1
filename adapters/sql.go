package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
)

var (
	_ core.Adapter = (*sqlAdapter)(nil)
	_ core.Source  = (*sqlSource)(nil)
)

// sqlAdapter connects to any database/sql driver. Each backend registers one
// in its own file.
type sqlAdapter struct {
	name string
	// dsn turns the endpoint url into the driver's data source name
	dsn func(url string) (string, error)
	// open overrides sql.Open for drivers with their own constructor
	open func(dsn string) (*sql.DB, error)
	opts []builders.ClientOption
}

func (a *sqlAdapter) Connect(url string) (core.Source, error) {
	dsn := url
	if a.dsn != nil {
		var err error
		dsn, err = a.dsn(url)
		if err != nil {
			return nil, core.NewConnectorConfigurationError(a.name, err.Error())
		}
	}

	open := a.open
	if open == nil {
		open = func(dsn string) (*sql.DB, error) {
			return sql.Open(a.name, dsn)
		}
	}

	db, err := open(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s database: %w", a.name, err)
	}

	return newSQLSource(builders.NewClient(db, a.opts...)), nil
}

// sqlSource serves stat calls by running query.sql with query.args.
type sqlSource struct {
	c *builders.Client
}

func newSQLSource(c *builders.Client) *sqlSource {
	return &sqlSource{c: c}
}

func (s *sqlSource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	query, args, err := sqlStatement(req.Query)
	if err != nil {
		return nil, err
	}

	stream, err := s.c.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("c.Query: %w", err)
	}
	return stream, nil
}

func (s *sqlSource) Close() {
	s.c.Close()
}

// sqlStatement extracts the statement and its positional arguments from a
// stat query.
func sqlStatement(query map[string]any) (string, []any, error) {
	stmt, ok := query["sql"].(string)
	if !ok || stmt == "" {
		return "", nil, core.NewRequiredParameterError("query.sql")
	}

	raw, ok := query["args"]
	if !ok || raw == nil {
		return stmt, nil, nil
	}
	args, ok := raw.([]any)
	if !ok {
		return "", nil, core.NewInvalidArgumentError("query.args", fmt.Sprintf("expected a list, got %T", raw))
	}

	return stmt, args, nil
}

// jsonProcessor decodes json columns into maps and lists.
func jsonProcessor(a any) any {
	var b []byte
	switch v := a.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return a
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return string(b)
	}
	return out
}
