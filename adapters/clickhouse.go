package adapters

import (
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "clickhouse",
		open: func(dsn string) (*sql.DB, error) {
			options, err := clickhouse.ParseDSN(dsn)
			if err != nil {
				return nil, fmt.Errorf("could not parse db connection string: %w", err)
			}
			return clickhouse.OpenDB(options), nil
		},
		opts: []builders.ClientOption{
			builders.WithCustomTypeProcessor("json", jsonProcessor),
		},
	}, "clickhouse")
}
