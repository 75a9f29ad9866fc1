//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters

import (
	_ "github.com/marcboeker/go-duckdb"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "duckdb",
		dsn: func(url string) (string, error) {
			// duckdb://  is an in-memory database
			return stripScheme(url), nil
		},
	}, "duck", "duckdb")
}
