package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/kndndrj/statpipe/adapters"
	"github.com/kndndrj/statpipe/core"
)

type MySQLContainer struct {
	*tcmysql.MySQLContainer
	ConnURL string
	Service *core.Service
}

// NewMySQLContainer creates a new MySQL container seeded with mysql_seed.sql
// and a service named name pointing at it.
func NewMySQLContainer(ctx context.Context, name string) (*MySQLContainer, error) {
	seedFile, err := GetTestDataFile("mysql_seed.sql")
	if err != nil {
		return nil, err
	}

	ctr, err := tcmysql.Run(
		ctx,
		"mysql:9.2.0",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcmysql.WithDatabase("stats"),
		tcmysql.WithPassword("password"),
		tcmysql.WithUsername("root"),
		tcmysql.WithScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := ctr.ConnectionString(ctx, "tls=skip-verify")
	if err != nil {
		return nil, err
	}
	// the module returns a bare driver DSN
	connURL := "mysql://" + dsn

	svc, err := adapters.NewService(&core.ServiceParams{
		Name: name,
		URL:  connURL,
	})
	if err != nil {
		return nil, err
	}

	return &MySQLContainer{
		MySQLContainer: ctr,
		ConnURL:        connURL,
		Service:        svc,
	}, nil
}
