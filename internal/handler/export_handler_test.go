package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/sheetexport/internal/handler"
	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/internal/service/serviceutils"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

type staticOpener struct {
	records []reportlayout.Record
	err     error
}

func (o staticOpener) Open(context.Context, reportlayout.SourceConfig) (service.RecordSource, func() error, error) {
	if o.err != nil {
		return nil, nil, o.err
	}
	return sheetexport.FromSlice(o.records), func() error { return nil }, nil
}

func newExportHandler(t *testing.T, opener service.SourceOpener) *handler.ExportHandler {
	t.Helper()
	tmpl, err := reportlayout.Parse([]byte(`
reports:
  - name: people
    title: People
    source: {type: sql, query: SELECT name, url FROM people}
    columns:
      - {field: name, header: Person Name, kind: link, link_field: url, width: 40}
      - {field: age, header: Age, kind: integer}
`))
	require.NoError(t, err)
	return handler.NewExportHandler(service.NewExportService(tmpl, opener, service.Options{}))
}

func serve(t *testing.T, h *handler.ExportHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/reports", h.ListReportsHandler)
	e.GET("/export/:report", h.ExportHandler)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestExportEndpoints(t *testing.T) {
	h := newExportHandler(t, staticOpener{records: []reportlayout.Record{
		{"name": "Ada Lovelace", "url": "https://en.wikipedia.org/wiki/Ada_Lovelace", "age": 36},
	}})

	t.Run("XLSX Export", func(t *testing.T) {
		rec := serve(t, h, "/export/people")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "people.xlsx")
		assert.NotZero(t, rec.Body.Len())
	})

	t.Run("CSV Export", func(t *testing.T) {
		rec := serve(t, h, "/export/people?format=csv")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "people.csv")
		body, _ := io.ReadAll(rec.Body)
		assert.Equal(t, "\nPerson Name,Age\nAda Lovelace,36\n", string(body))
	})

	t.Run("Unknown Report", func(t *testing.T) {
		rec := serve(t, h, "/export/nobody")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp serviceutils.GenericResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "nobody")
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		rec := serve(t, h, "/export/people?format=pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("List Reports", func(t *testing.T) {
		rec := serve(t, h, "/reports")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name":"people"`)
	})
}

func TestExportEndpoints_SourceUnavailable(t *testing.T) {
	h := newExportHandler(t, staticOpener{err: service.ErrSourceUnavailable})
	rec := serve(t, h, "/export/people")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
}
