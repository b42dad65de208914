package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/sheetexport/pkg/reportlayout"
	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

const reportsYAML = `
reports:
  - name: datasets
    title: Datasets
    source: {type: sql, query: SELECT * FROM datasets}
    columns:
      - {field: id, header: ID, kind: identifier}
      - {field: name, header: Name, formatter: shout}
    groups:
      - label: Stats
        columns:
          - {field: rows, header: Rows, kind: integer}
          - {field: ratio, header: Ratio, kind: float}
      - label: Tags
        expand_field: tags
  - name: events
    source: {type: search, index: events}
    columns:
      - {field: _id, header: ID}
`

type fakeOpener struct {
	records  []reportlayout.Record
	err      error
	released int
}

func (f *fakeOpener) Open(ctx context.Context, cfg reportlayout.SourceConfig) (RecordSource, func() error, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return sheetexport.FromSlice(f.records), func() error { f.released++; return nil }, nil
}

func newService(t *testing.T, opener SourceOpener) ExportService {
	t.Helper()
	tmpl, err := reportlayout.Parse([]byte(reportsYAML))
	require.NoError(t, err)
	return NewExportService(tmpl, opener, Options{
		RowWindow: 10,
		Formatters: map[string]reportlayout.FormatterFunc{
			"shout": func(v interface{}) interface{} { return v.(string) + "!" },
		},
	})
}

var datasetRecords = []reportlayout.Record{
	{"id": "ds-1", "name": "sales", "rows": int64(10), "ratio": 0.5, "tags": map[string]interface{}{"team": "core"}},
	{"id": "ds-2", "name": "costs", "rows": int64(20), "ratio": 1.25, "tags": map[string]interface{}{"env": "prod"}},
}

func TestExportService_XLSX(t *testing.T) {
	opener := &fakeOpener{records: datasetRecords}
	svc := newService(t, opener)

	var buf bytes.Buffer
	res, err := svc.Export(context.Background(), "datasets", "", &buf)
	require.NoError(t, err)
	assert.Equal(t, "Datasets", res.Sheet)
	assert.Equal(t, int64(2), res.Items)
	assert.Equal(t, int64(4), res.Rows)
	require.NotNil(t, res.Expected)
	assert.Equal(t, int64(2), *res.Expected)
	assert.Equal(t, 1, opener.released)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Datasets")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Name", "Rows", "Ratio", "env", "team"}, rows[1])
	assert.Equal(t, "sales!", rows[2][1])
	assert.Equal(t, "core", rows[2][5])
	assert.Equal(t, "prod", rows[3][4])
}

func TestExportService_CSV(t *testing.T) {
	svc := newService(t, &fakeOpener{records: datasetRecords[:1]})

	var buf bytes.Buffer
	res, err := svc.Export(context.Background(), "datasets", FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, ",,Stats,,Tags\nID,Name,Rows,Ratio,team\nds-1,sales!,10,0.5,core\n", buf.String())
}

func TestExportService_Errors(t *testing.T) {
	svc := newService(t, &fakeOpener{records: datasetRecords})
	var buf bytes.Buffer

	_, err := svc.Export(context.Background(), "datasets", "pdf", &buf)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Export(context.Background(), "nope", FormatCSV, &buf)
	assert.ErrorIs(t, err, reportlayout.ErrUnknownReport)

	svc = newService(t, &fakeOpener{err: ErrSourceUnavailable})
	_, err = svc.Export(context.Background(), "events", FormatCSV, &buf)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestExportService_RenderErrorKeepsCounts(t *testing.T) {
	opener := &fakeOpener{records: []reportlayout.Record{
		{"id": "ok", "name": "a", "rows": int64(1)},
		{"id": "bad", "name": "b", "rows": "lots"},
	}}
	svc := newService(t, opener)

	res, err := svc.Export(context.Background(), "datasets", FormatCSV, &bytes.Buffer{})
	require.Error(t, err)
	var renderErr *sheetexport.RenderError
	assert.True(t, errors.As(err, &renderErr))
	assert.Equal(t, int64(2), res.Items)
	assert.Equal(t, 1, opener.released)
}

func TestExportService_Reports(t *testing.T) {
	svc := newService(t, &fakeOpener{})
	assert.Equal(t, []ReportInfo{
		{Name: "datasets", Sheet: "Datasets", Source: "sql"},
		{Name: "events", Sheet: "events", Source: "search"},
	}, svc.Reports())
}

func TestBackends_Unavailable(t *testing.T) {
	for _, typ := range []string{reportlayout.SourceSQL, reportlayout.SourceSearch, reportlayout.SourceDatastore} {
		_, _, err := Backends{}.Open(context.Background(), reportlayout.SourceConfig{Type: typ})
		assert.ErrorIs(t, err, ErrSourceUnavailable, typ)
	}
	_, _, err := Backends{}.Open(context.Background(), reportlayout.SourceConfig{Type: "ftp"})
	assert.Error(t, err)
}
