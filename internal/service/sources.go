package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"github.com/olivere/elastic/v7"

	"github.com/locvowork/sheetexport/internal/source/datastoresource"
	"github.com/locvowork/sheetexport/internal/source/searchsource"
	"github.com/locvowork/sheetexport/internal/source/sqlsource"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

// ErrSourceUnavailable is returned when a report needs a backend that is
// not configured.
var ErrSourceUnavailable = errors.New("source not configured")

// RecordSource is a source of report records.
type RecordSource = sheetexport.RecordSource[reportlayout.Record]

// SourceOpener opens the record source of a report. The returned function
// releases the source.
type SourceOpener interface {
	Open(ctx context.Context, cfg reportlayout.SourceConfig) (RecordSource, func() error, error)
}

// Backends opens sources on the configured backends. Nil backends are
// reported as ErrSourceUnavailable.
type Backends struct {
	DB        *sql.DB
	Search    *elastic.Client
	Datastore *datastore.Client
}

func (b Backends) Open(ctx context.Context, cfg reportlayout.SourceConfig) (RecordSource, func() error, error) {
	switch cfg.Type {
	case reportlayout.SourceSQL:
		if b.DB == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, cfg.Type)
		}
		src, err := sqlsource.Query(ctx, b.DB, cfg.Query)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil

	case reportlayout.SourceSearch:
		if b.Search == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, cfg.Type)
		}
		src, err := searchsource.New(ctx, b.Search, cfg.Index, cfg.Query, cfg.PageSize)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return src.Close(context.Background()) }, nil

	case reportlayout.SourceDatastore:
		if b.Datastore == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, cfg.Type)
		}
		var opts []datastoresource.Option
		if cfg.Count {
			opts = append(opts, datastoresource.WithCount())
		}
		src, err := datastoresource.New(ctx, b.Datastore, datastoresource.KindQuery(cfg.Kind), opts...)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown source type %q", cfg.Type)
}
