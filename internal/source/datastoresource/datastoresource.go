// Package datastoresource reads report records from Cloud Datastore queries.
package datastoresource

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

// KeyField is the record field holding the entity key name or id.
const KeyField = "__key__"

// NewClient creates a Datastore client. The client library switches to
// the emulator by itself when DATASTORE_EMULATOR_HOST is set.
func NewClient(ctx context.Context, projectID string) (*datastore.Client, error) {
	if host := os.Getenv("DATASTORE_EMULATOR_HOST"); host != "" {
		logger.InfoLog(ctx, "Initializing Datastore client against emulator at %s", host)
	}
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return client, nil
}

// Option configures New.
type Option func(*options)

type options struct {
	count bool
}

// WithCount runs a count query first so that the source knows its size.
func WithCount() Option {
	return func(o *options) { o.count = true }
}

// Source yields the entities matched by a query.
type Source struct {
	it   *datastore.Iterator
	size *int64
	done bool
}

// New runs query on client.
func New(ctx context.Context, client *datastore.Client, query *datastore.Query, opts ...Option) (*Source, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Source{}
	if o.count {
		n, err := client.Count(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("count %v: %w", query, err)
		}
		size := int64(n)
		s.size = &size
	}
	s.it = client.Run(ctx, query)
	return s, nil
}

// KindQuery returns a query over every entity of kind.
func KindQuery(kind string) *datastore.Query {
	return datastore.NewQuery(kind)
}

func (s *Source) Next(ctx context.Context) (reportlayout.Record, bool, error) {
	if s.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var props datastore.PropertyList
	key, err := s.it.Next(&props)
	if errors.Is(err, iterator.Done) {
		s.done = true
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rec := toRecord(props)
	if key != nil {
		rec[KeyField] = keyValue(key)
	}
	return rec, true, nil
}

func (s *Source) EstimatedSize() *int64 { return s.size }

func toRecord(props []datastore.Property) reportlayout.Record {
	rec := make(reportlayout.Record, len(props))
	for _, p := range props {
		rec[p.Name] = propertyValue(p.Value)
	}
	return rec
}

func propertyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case *datastore.Entity:
		if v == nil {
			return nil
		}
		return map[string]interface{}(toRecord(v.Properties))
	case *datastore.Key:
		return keyValue(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = propertyValue(e)
		}
		return out
	}
	return v
}

func keyValue(k *datastore.Key) interface{} {
	if k == nil {
		return nil
	}
	if k.Name != "" {
		return k.Name
	}
	return k.ID
}
