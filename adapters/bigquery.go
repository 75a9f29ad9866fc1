package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(&BigQuery{}, "bigquery")
}

var (
	_ core.Adapter = (*BigQuery)(nil)
	_ core.Source  = (*bigQuerySource)(nil)
)

type BigQuery struct{}

// Connect creates a [BigQuery] client connected to the project specified
// in the url. The format of the url is as follows:
//
//	bigquery://[project][?options]
//
// where project is optional. If not set, the project will attempt to be
// detected from the credentials and current gcloud settings.
//
// Options:
//   - credentials=path/to/creds.json: Path to credentials file
//   - max-bytes-billed=integer: Maximum bytes to be billed
//   - disable-query-cache=bool: Whether to disable query cache
//   - use-legacy-sql=bool: Whether to use legacy SQL
//   - location=string: Query location
//   - enable-storage-read=bool: Enable BigQuery Storage API
//
// For internal testing:
//   - endpoint=url: Custom endpoint for test containers
//
// If credentials are not specified, they will be located according to
// the Google Default Credentials process.
func (bq *BigQuery) Connect(rawURL string) (core.Source, error) {
	ctx := context.Background()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewConnectorConfigurationError("bigquery", err.Error())
	}

	if u.Host == "" {
		u.Host = bigquery.DetectProjectID
	}

	options := []option.ClientOption{option.WithTelemetryDisabled()}
	params := u.Query()

	// special param to indicate we are running in testcontainer.
	if endpoint := params.Get("endpoint"); endpoint != "" {
		options = append(options,
			option.WithEndpoint(endpoint),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			option.WithoutAuthentication(),
			internaloption.SkipDialSettingsValidation(),
		)
	} else if file := params.Get("credentials"); file != "" {
		options = append(options, option.WithCredentialsFile(file))
	}

	source := new(bigQuerySource)
	if err := source.config.fromParams(params); err != nil {
		return nil, core.NewConnectorConfigurationError("bigquery", err.Error())
	}

	source.c, err = bigquery.NewClient(ctx, u.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}

	if err = callIfBoolSet("enable-storage-read", params, func() error {
		return source.c.EnableStorageReadClient(ctx, options...)
	}, nil); err != nil {
		return nil, err
	}

	return source, nil
}

type bigQueryConfig struct {
	location          string
	maxBytesBilled    int64
	disableQueryCache bool
	useLegacySQL      bool
}

func (c *bigQueryConfig) fromParams(params url.Values) error {
	return errors.Join(
		setStringOption(&c.location, "location", params),
		setInt64Option(&c.maxBytesBilled, "max-bytes-billed", params),
		setBoolOption(&c.disableQueryCache, "disable-query-cache", params),
		setBoolOption(&c.useLegacySQL, "use-legacy-sql", params),
	)
}

type bigQuerySource struct {
	c      *bigquery.Client
	config bigQueryConfig
}

func (s *bigQuerySource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	stmt, args, err := sqlStatement(req.Query)
	if err != nil {
		return nil, err
	}

	query := s.c.Query(stmt)
	query.DisableQueryCache = s.config.disableQueryCache
	query.MaxBytesBilled = s.config.maxBytesBilled
	query.UseLegacySQL = s.config.useLegacySQL
	query.Location = s.config.location
	for _, arg := range args {
		query.Parameters = append(query.Parameters, bigquery.QueryParameter{Value: arg})
	}

	iter, err := query.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query.Read: %w", err)
	}

	// schema isn't available until the first call to iter.Next()
	var first bigqueryRowLoader
	err = iter.Next(&first)
	if errors.Is(err, iterator.Done) {
		next, hasNext := builders.NextNil()
		return builders.NewRecordStreamBuilder().
			WithNextFunc(next, hasNext).
			WithHeader(bigqueryHeader(iter.Schema)).
			Build(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("iter.Next: %w", err)
	}

	// one row is always read ahead so hasNext knows about the end
	pending := &first
	var pendingErr error
	nextFn := func() (core.Record, error) {
		if pendingErr != nil {
			err := pendingErr
			pendingErr = nil
			return nil, err
		}
		if pending == nil {
			return nil, core.ErrStreamDrained
		}
		row := pending.row

		var loader bigqueryRowLoader
		err := iter.Next(&loader)
		switch {
		case errors.Is(err, iterator.Done):
			pending = nil
		case err != nil:
			pending = nil
			pendingErr = err
		default:
			pending = &loader
		}

		return row, nil
	}

	hasNextFn := func() bool {
		return pending != nil || pendingErr != nil
	}

	return builders.NewRecordStreamBuilder().
		WithNextFunc(nextFn, hasNextFn).
		WithHeader(bigqueryHeader(iter.Schema)).
		Build(), nil
}

func (s *bigQuerySource) Close() {
	_ = s.c.Close()
}

func bigqueryHeader(schema bigquery.Schema) core.Header {
	header := make(core.Header, len(schema))
	for i, field := range schema {
		header[i] = field.Name
	}
	return header
}

type bigqueryRowLoader struct {
	row core.Row
}

func (l *bigqueryRowLoader) Load(row []bigquery.Value, schema bigquery.Schema) error {
	l.row = make(core.Row, len(row))

	for i, col := range row {
		var field *bigquery.FieldSchema
		if i < len(schema) {
			field = schema[i]
		}
		l.row[i] = bigqueryValue(col, field)
	}

	return nil
}

// bigqueryValue turns RECORD values into maps and repeated values into
// lists.
func bigqueryValue(v bigquery.Value, field *bigquery.FieldSchema) any {
	if field == nil || v == nil {
		return v
	}

	if field.Repeated {
		items, ok := v.([]bigquery.Value)
		if !ok {
			return v
		}
		single := *field
		single.Repeated = false
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = bigqueryValue(item, &single)
		}
		return out
	}

	if field.Type == bigquery.RecordFieldType {
		values, ok := v.([]bigquery.Value)
		if !ok {
			return v
		}
		out := make(map[string]any, len(values))
		for i, nested := range values {
			if i < len(field.Schema) {
				out[field.Schema[i].Name] = bigqueryValue(nested, field.Schema[i])
			}
		}
		return out
	}

	return v
}

func setBoolOption(field *bool, name string, params url.Values) error {
	return setOption(field, name, params, strconv.ParseBool)
}

func setInt64Option(field *int64, name string, params url.Values) error {
	return setOption(field, name, params, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func setStringOption(field *string, name string, params url.Values) error {
	return setOption(field, name, params, func(s string) (string, error) { return s, nil })
}

func setOption[T any](field *T, name string, params url.Values, parse func(string) (T, error)) error {
	setting := params.Get(name)
	if setting == "" {
		return nil
	}

	val, err := parse(setting)
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", name, err)
	}

	*field = val
	return nil
}

func callIfBoolSet(name string, params url.Values, onTrue, onFalse func() error) error {
	if onTrue == nil {
		onTrue = func() error { return nil }
	}
	if onFalse == nil {
		onFalse = func() error { return nil }
	}

	setting := params.Get(name)
	if setting == "" {
		return nil
	}

	b, err := strconv.ParseBool(setting)
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", name, err)
	}
	if b {
		return onTrue()
	}
	return onFalse()
}
