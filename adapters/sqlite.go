package adapters

import (
	_ "modernc.org/sqlite"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "sqlite",
		dsn: func(url string) (string, error) {
			return stripScheme(url), nil
		},
	}, "sqlite", "sqlite3")
}
