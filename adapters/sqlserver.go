package adapters

import (
	"fmt"
	nurl "net/url"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(&sqlAdapter{
		name: "sqlserver",
		dsn:  sqlserverDSN,
		opts: []builders.ClientOption{
			builders.WithCustomTypeProcessor("uniqueidentifier", uniqueIdentifierProcessor),
		},
	}, "sqlserver", "mssql")
}

// sqlserverDSN accepts the mssql alias, the driver only knows sqlserver://.
func sqlserverDSN(url string) (string, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("could not parse db connection string: %w", err)
	}
	u.Scheme = "sqlserver"
	return u.String(), nil
}

// uniqueIdentifierProcessor renders uniqueidentifier columns the way sql
// server prints them. The wire form has the first three groups byte swapped.
func uniqueIdentifierProcessor(a any) any {
	b, ok := a.([]byte)
	if !ok {
		return a
	}

	var id mssql.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return a
	}

	return id.String()
}
