package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
)

// Register client
func init() {
	_ = register(&Mongo{}, "mongo", "mongodb", "mongodb+srv")
}

var (
	_ core.Adapter = (*Mongo)(nil)
	_ core.Source  = (*mongoSource)(nil)
)

// Mongo runs aggregation pipelines against the collection named by the stat
// resource. The url is a regular mongodb connection string with the database
// as its path. The extra domain-field parameter names the document field
// every pipeline is scoped to with the request's domain id.
type Mongo struct{}

func (m *Mongo) Connect(rawURL string) (core.Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewConnectorConfigurationError("mongo", err.Error())
	}

	dbName := strings.Trim(u.Path, "/")
	if dbName == "" {
		return nil, core.NewConnectorConfigurationError("mongo", "database name missing from url path")
	}

	params := u.Query()
	domainField := params.Get("domain-field")
	params.Del("domain-field")
	u.RawQuery = params.Encode()

	opts := options.Client().ApplyURI(u.String())
	client, err := mongo.Connect(context.TODO(), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}

	return &mongoSource{
		c:           client,
		dbName:      dbName,
		domainField: domainField,
	}, nil
}

type mongoSource struct {
	c           *mongo.Client
	dbName      string
	domainField string
}

func (s *mongoSource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	pipeline, err := mongoPipeline(req.Query)
	if err != nil {
		return nil, err
	}
	if s.domainField != "" && req.DomainID != "" {
		match := bson.D{{Key: "$match", Value: bson.D{{Key: s.domainField, Value: req.DomainID}}}}
		pipeline = append(bson.A{match}, pipeline...)
	}

	cursor, err := s.c.Database(s.dbName).Collection(req.Resource).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("collection.Aggregate: %w", err)
	}

	next, hasNext := builders.NextYield(func(yield func(core.Record)) error {
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				return fmt.Errorf("cursor.Decode: %w", err)
			}
			yield(normalizeBSON(doc))
		}
		return cursor.Err()
	})

	return builders.NewRecordStreamBuilder().
		WithNextFunc(next, hasNext).
		WithCloseFunc(func() {
			_ = cursor.Close(context.Background())
		}).
		WithMeta(&core.Meta{SchemaType: core.SchemaLess}).
		Build(), nil
}

func (s *mongoSource) Close() {
	_ = s.c.Disconnect(context.TODO())
}

// mongoPipeline reads query.pipeline as extended json, so values like
// {"$oid": "..."} or {"$date": "..."} keep their bson types.
func mongoPipeline(query map[string]any) (bson.A, error) {
	raw, ok := query["pipeline"]
	if !ok || raw == nil {
		return nil, core.NewRequiredParameterError("query.pipeline")
	}
	if _, ok := raw.([]any); !ok {
		return nil, core.NewInvalidArgumentError("query.pipeline", fmt.Sprintf("expected a list, got %T", raw))
	}

	b, err := json.Marshal(map[string]any{"pipeline": raw})
	if err != nil {
		return nil, core.NewInvalidArgumentError("query.pipeline", err.Error())
	}

	var doc struct {
		Pipeline bson.A `bson:"pipeline"`
	}
	if err := bson.UnmarshalExtJSON(b, false, &doc); err != nil {
		return nil, core.NewInvalidArgumentError("query.pipeline", err.Error())
	}

	return doc.Pipeline, nil
}

// normalizeBSON converts driver types into plain go values.
func normalizeBSON(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeBSON(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeBSON(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return int64(val.T)
	case primitive.Decimal128:
		f, err := decimalToFloat(val)
		if err != nil {
			return val.String()
		}
		return f
	case int32:
		return int64(val)
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func decimalToFloat(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscan(d.String(), &f)
	return f, err
}
