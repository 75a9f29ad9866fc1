package adapters

import (
	"fmt"
	nurl "net/url"

	_ "github.com/lib/pq"

	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "postgres",
		dsn:  postgresDSN,
		opts: []builders.ClientOption{
			builders.WithCustomTypeProcessor("json", jsonProcessor),
			builders.WithCustomTypeProcessor("jsonb", jsonProcessor),
		},
	}, "postgres", "postgresql", "pg")
}

func postgresDSN(url string) (string, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("could not parse db connection string: %w", err)
	}
	// lib/pq only knows the long scheme
	u.Scheme = "postgres"
	return u.String(), nil
}
