package testhelpers

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kndndrj/statpipe/adapters"
	"github.com/kndndrj/statpipe/core"
)

type OracleContainer struct {
	tc.Container
	ConnURL string
	Service *core.Service
}

// NewOracleContainer creates a new oracle container seeded with
// oracle_seed.sql and a service named name pointing at it.
func NewOracleContainer(ctx context.Context, name string) (*OracleContainer, error) {
	const (
		password      = "password"
		appUser       = "tester"
		port          = "1521/tcp"
		memoryLimitGB = 3 * 1024 * 1024 * 1024
	)

	seedFile, err := GetTestDataFile("oracle_seed.sql")
	if err != nil {
		return nil, err
	}

	req := tc.ContainerRequest{
		Image:        "gvenzl/oracle-free:23.6-slim-faststart",
		ExposedPorts: []string{port},
		Env: map[string]string{
			"ORACLE_PASSWORD":   password,
			"APP_USER":          appUser,
			"APP_USER_PASSWORD": password,
		},
		WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").WithStartupTimeout(5 * time.Minute),
		Resources:  container.Resources{Memory: memoryLimitGB},
		Files: []tc.ContainerFile{
			{
				Reader:            seedFile,
				ContainerFilePath: "/docker-entrypoint-initdb.d/oracle_seed.sql",
				FileMode:          0o755,
			},
		},
	}

	ctr, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		ProviderType:     GetContainerProvider(),
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}

	mPort, err := ctr.MappedPort(ctx, port)
	if err != nil {
		return nil, err
	}

	connURL := fmt.Sprintf("oracle://%s:%s@%s:%d/FREEPDB1", appUser, password, host, mPort.Int())

	svc, err := adapters.NewService(&core.ServiceParams{
		Name: name,
		URL:  connURL,
	})
	if err != nil {
		return nil, err
	}

	return &OracleContainer{
		Container: ctr,
		ConnURL:   connURL,
		Service:   svc,
	}, nil
}
