package adapters

import (
	"errors"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "databricks",
		dsn:  databricksDSN,
	}, "databricks")
}

// databricksDSN turns an endpoint in the format of:
//
//	databricks://token:[my_token]@[hostname]:[port]/[endpoint http path]?catalog=...
//
// into the driver DSN. The catalog parameter is required.
//
// see https://github.com/databricks/databricks-sql-go for more information.
func databricksDSN(connectionURL string) (string, error) {
	dsn := stripScheme(connectionURL)

	parsedURL, err := url.Parse("databricks://" + dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse connection string: %w", err)
	}
	if parsedURL.Query().Get("catalog") == "" {
		return "", errors.New("required parameter '?catalog=<catalog>' is missing")
	}

	return dsn, nil
}
