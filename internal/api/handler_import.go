package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"equipment-booking-backend/internal/importer"
	"equipment-booking-backend/internal/mw"
)

// Import handles POST /api/import with a multipart "file" field holding a
// .csv or .xlsx document.
func (h *Handler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "a file field is required")
		return
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		badRequest(c, "only .csv and .xlsx files are supported")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "failed to read upload")
		return
	}
	defer f.Close()

	var res importer.Result
	if ext == ".xlsx" {
		res, err = h.importer.ImportXLSX(c.Request.Context(), f)
	} else {
		res, err = h.importer.ImportCSV(c.Request.Context(), f)
	}
	h.observeImport(res)
	if err != nil {
		var extra gin.H
		if res.ImportedCount > 0 {
			extra = gin.H{"result": res}
		}
		writeError(c, err, extra)
		return
	}

	mw.LoggerFrom(c).Info("import finished",
		zap.String("file", fh.Filename),
		zap.Int("imported", res.ImportedCount),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)),
	)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) observeImport(res importer.Result) {
	if h.metrics == nil {
		return
	}
	h.metrics.ImportedRows.Add(float64(res.ImportedCount))
	h.metrics.ImportErrors.Add(float64(len(res.Errors)))
}
