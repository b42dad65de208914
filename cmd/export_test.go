package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

type stubExports struct {
	body string
	err  error
}

func (s stubExports) Reports() []service.ReportInfo { return nil }

func (s stubExports) Export(_ context.Context, report, format string, w io.Writer) (service.Result, error) {
	if _, err := io.WriteString(w, s.body); err != nil {
		return service.Result{}, err
	}
	return service.Result{Report: report, Items: 1, Rows: 3}, s.err
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, output, want string
	}{
		{"", "", service.FormatXLSX},
		{"", "out.xlsx", service.FormatXLSX},
		{"", "out.CSV", service.FormatCSV},
		{"csv", "out.xlsx", service.FormatCSV},
		{"XLSX", "", service.FormatXLSX},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveFormat(tt.format, tt.output), "%q %q", tt.format, tt.output)
	}
}

func TestExportToFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	err := checkOutput(path, false)
	assert.ErrorIs(t, err, ErrOutputExists)

	_, err = exportToFile(context.Background(), stubExports{body: "new"}, "r", service.FormatCSV, path, false)
	assert.ErrorIs(t, err, ErrOutputExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestExportToFile_Force(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old contents"), 0o644))

	require.NoError(t, checkOutput(path, true))
	res, err := exportToFile(context.Background(), stubExports{body: "new"}, "r", service.FormatCSV, path, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestExportToFile_RemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, checkOutput(path, false))

	_, err := exportToFile(context.Background(), stubExports{body: "half", err: errors.New("boom")}, "r", service.FormatXLSX, path, false)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPrintReports(t *testing.T) {
	tmpl, err := reportlayout.Parse([]byte(`
reports:
  - name: datasets
    title: Datasets
    source: {type: sql, query: SELECT 1}
    columns: [{field: id, header: ID}]
  - name: 売上
    source: {type: search, index: sales}
    columns: [{field: id, header: ID}]
`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printReports(&buf, tmpl, false))
	assert.Equal(t, ""+
		"NAME      SHEET     SOURCE\n"+
		"datasets  Datasets  sql\n"+
		"売上      売上      search\n", buf.String())

	buf.Reset()
	require.NoError(t, printReports(&buf, tmpl, true))
	assert.Contains(t, buf.String(), `"source": "search"`)
}
