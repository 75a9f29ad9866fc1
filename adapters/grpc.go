package adapters

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	nurl "net/url"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(NewGRPC(), "grpc", "grpcs")
}

var (
	_ core.Adapter = (*GRPC)(nil)
	_ core.Source  = (*grpcSource)(nil)
)

// GRPC connects to stat services speaking the generic stat rpc:
//
//	/spaceone.api.<service>.<version>.<Resource>/stat
//
// with a google.protobuf.Struct request {domain_id, query} and a reply
// {results, total_count}. The url format is:
//
//	grpc://host:port/<version>[?service=name]
//
// grpcs uses TLS. The service defaults to the first label of the host.
type GRPC struct {
	dialOpts []grpc.DialOption
}

// NewGRPC returns the adapter. Extra dial options are appended to the
// transport credentials.
func NewGRPC(opts ...grpc.DialOption) *GRPC {
	return &GRPC{
		dialOpts: opts,
	}
}

func (g *GRPC) Connect(url string) (core.Source, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return nil, core.NewConnectorConfigurationError("grpc", err.Error())
	}
	if u.Host == "" {
		return nil, core.NewConnectorConfigurationError("grpc", fmt.Sprintf("endpoint has no host (%s)", url))
	}

	version := strings.Trim(u.Path, "/")
	if version == "" {
		return nil, core.NewConnectorConfigurationError("grpc", fmt.Sprintf("endpoint has no version (%s)", url))
	}

	service := u.Query().Get("service")
	if service == "" {
		service, _, _ = strings.Cut(u.Hostname(), ".")
	}

	creds := insecure.NewCredentials()
	if u.Scheme == "grpcs" {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, g.dialOpts...)

	conn, err := grpc.NewClient("passthrough:///"+u.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc.NewClient: %w", err)
	}

	return &grpcSource{
		conn:    conn,
		service: service,
		version: version,
	}, nil
}

type grpcSource struct {
	conn    *grpc.ClientConn
	service string
	version string
}

func (s *grpcSource) method(resource string) string {
	return fmt.Sprintf("/spaceone.api.%s.%s.%s/stat", s.service, s.version, resource)
}

func (s *grpcSource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	in, err := statRequestStruct(req)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	err = s.conn.Invoke(ctx, s.method(req.Resource), in, out)
	if err != nil {
		return nil, fmt.Errorf("conn.Invoke: %w", err)
	}

	fields := out.GetFields()
	results := fields["results"].GetListValue().GetValues()

	meta := &core.Meta{SchemaType: core.SchemaLess}
	if tc, ok := fields["total_count"]; ok {
		if _, isNum := tc.GetKind().(*structpb.Value_NumberValue); isNum {
			total := int(tc.GetNumberValue())
			meta.TotalCount = &total
		}
	}

	next, hasNext := builders.NextSlice(results, func(v *structpb.Value) any {
		return v.AsInterface()
	})

	return builders.NewRecordStreamBuilder().
		WithNextFunc(next, hasNext).
		WithMeta(meta).
		Build(), nil
}

func (s *grpcSource) Close() {
	_ = s.conn.Close()
}

// statRequestStruct converts the request to a protobuf struct. The query is
// passed through json first so any json compatible value is accepted.
func statRequestStruct(req *core.StatRequest) (*structpb.Struct, error) {
	b, err := json.Marshal(map[string]any{
		"domain_id": req.DomainID,
		"query":     req.Query,
	})
	if err != nil {
		return nil, core.NewInvalidArgumentError("query", err.Error())
	}

	var plain map[string]any
	if err := json.Unmarshal(b, &plain); err != nil {
		return nil, core.NewInvalidArgumentError("query", err.Error())
	}

	st, err := structpb.NewStruct(plain)
	if err != nil {
		return nil, core.NewInvalidArgumentError("query", err.Error())
	}
	return st, nil
}
