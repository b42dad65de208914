package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/internal/service/serviceutils"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

type ExportHandler struct {
	svc service.ExportService
}

func NewExportHandler(svc service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ListReportsHandler handles GET /reports
func (h *ExportHandler) ListReportsHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "reports", h.svc.Reports())
}

// ExportHandler handles GET /export/:report?format=xlsx|csv
func (h *ExportHandler) ExportHandler(c echo.Context) error {
	ctx := c.Request().Context()
	report := c.Param("report")
	format := c.QueryParam("format")
	if format == "" {
		format = service.FormatXLSX
	}
	logger.InfoLog(ctx, "Exporting report %s as %s", report, format)
	start := time.Now()

	w := &lazyResponse{c: c, filename: fmt.Sprintf("%s.%s", report, format), contentType: service.ContentType(format)}
	res, err := h.svc.Export(ctx, report, format, w)
	if err != nil {
		logger.ErrorLog(ctx, "Export of report %s failed after %d items: %v", report, res.Items, err)
		if w.committed {
			// headers are sent, the client sees a truncated file
			return nil
		}
		return serviceutils.ResponseError(c, statusOf(err), "Failed to export report", err)
	}
	if !w.committed {
		w.commit()
	}

	logger.InfoLog(ctx, "Exported report %s in %v: %d items, %d rows", report, time.Since(start), res.Items, res.Rows)
	return nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, reportlayout.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// lazyResponse sends the download headers on the first write so that
// errors raised before any output still get a JSON body.
type lazyResponse struct {
	c           echo.Context
	filename    string
	contentType string
	committed   bool
}

func (w *lazyResponse) commit() {
	resp := w.c.Response()
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", w.filename))
	resp.Header().Set(echo.HeaderContentType, w.contentType)
	resp.WriteHeader(http.StatusOK)
	w.committed = true
}

func (w *lazyResponse) Write(p []byte) (int, error) {
	if !w.committed {
		w.commit()
	}
	return w.c.Response().Write(p)
}
