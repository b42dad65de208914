// Package searchsource reads report records from an Elasticsearch scroll.
package searchsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

const (
	// DefaultPageSize is the scroll page size used when none is given.
	DefaultPageSize = 500
	// IDField is the record field holding the document id.
	IDField   = "_id"
	keepAlive = "5m"
)

// NewClient connects to the cluster at url.
func NewClient(url string, sniff bool) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(sniff),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return client, nil
}

// Source yields the documents matched by a query, one page at a time.
type Source struct {
	scroll *elastic.ScrollService
	page   []*elastic.SearchHit
	pos    int
	total  *int64
	done   bool
}

// New opens a scroll over index. query is a JSON query body; empty matches
// every document. The first page is fetched at once so that the total hit
// count is known.
func New(ctx context.Context, client *elastic.Client, index, query string, pageSize int) (*Source, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var q elastic.Query = elastic.NewMatchAllQuery()
	if query != "" {
		q = elastic.NewRawStringQuery(query)
	}

	s := &Source{
		scroll: client.Scroll(index).Query(q).Size(pageSize).KeepAlive(keepAlive),
	}
	if err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) fetch(ctx context.Context) error {
	res, err := s.scroll.Do(ctx)
	if errors.Is(err, io.EOF) {
		s.done = true
		s.page = nil
		if res != nil {
			s.setTotal(res)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	s.setTotal(res)
	s.page = res.Hits.Hits
	s.pos = 0
	if len(s.page) == 0 {
		s.done = true
	}
	return nil
}

func (s *Source) setTotal(res *elastic.SearchResult) {
	if s.total != nil || res.Hits == nil || res.Hits.TotalHits == nil {
		return
	}
	n := res.Hits.TotalHits.Value
	s.total = &n
}

func (s *Source) Next(ctx context.Context) (reportlayout.Record, bool, error) {
	for s.pos >= len(s.page) {
		if s.done {
			return nil, false, nil
		}
		if err := s.fetch(ctx); err != nil {
			return nil, false, err
		}
	}
	hit := s.page[s.pos]
	s.pos++
	rec, err := decode(hit)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// EstimatedSize returns the total hit count reported by the first page.
func (s *Source) EstimatedSize() *int64 { return s.total }

// Close releases the scroll on the cluster.
func (s *Source) Close(ctx context.Context) error {
	return s.scroll.Clear(ctx)
}

func decode(hit *elastic.SearchHit) (reportlayout.Record, error) {
	rec := reportlayout.Record{}
	if len(hit.Source) > 0 {
		dec := json.NewDecoder(bytes.NewReader(hit.Source))
		dec.UseNumber()
		var doc map[string]interface{}
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", hit.Id, err)
		}
		for k, v := range doc {
			rec[k] = v
		}
	}
	rec[IDField] = hit.Id
	return rec, nil
}
