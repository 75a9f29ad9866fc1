package adapters

import (
	_ "github.com/sijms/go-ora/v2"
)

// Register client
func init() {
	_ = register(&sqlAdapter{name: "oracle"}, "oracle")
}
