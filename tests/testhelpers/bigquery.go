package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kndndrj/statpipe/adapters"
	"github.com/kndndrj/statpipe/core"
)

// BigQueryContainer is a test container for BigQuery.
type BigQueryContainer struct {
	*gcloud.GCloudContainer
	ConnURL string
	Service *core.Service
}

// NewBigQueryContainer creates a bigquery emulator seeded with
// bigquery_seed.yaml and a service named name pointing at it.
func NewBigQueryContainer(ctx context.Context, name string) (*BigQueryContainer, error) {
	seedFile, err := GetTestDataFile("bigquery_seed.yaml")
	if err != nil {
		return nil, err
	}

	ctr, err := gcloud.RunBigQuery(
		ctx,
		"ghcr.io/goccy/bigquery-emulator:0.6.6",
		gcloud.WithProjectID("test-project"),
		gcloud.WithDataYAML(seedFile),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
			ContainerRequest: tc.ContainerRequest{
				ImagePlatform: "linux/amd64",
			},
		}),
		tc.WithWaitStrategy(wait.ForLog("[bigquery-emulator] gRPC")),
	)
	if err != nil {
		return nil, err
	}

	connURL := fmt.Sprintf("bigquery://%s?max-bytes-billed=1000&disable-query-cache=true&endpoint=%s", ctr.Settings.ProjectID, ctr.URI)

	svc, err := adapters.NewService(&core.ServiceParams{
		Name: name,
		URL:  connURL,
	})
	if err != nil {
		return nil, err
	}

	return &BigQueryContainer{
		GCloudContainer: ctr,
		ConnURL:         connURL,
		Service:         svc,
	}, nil
}
