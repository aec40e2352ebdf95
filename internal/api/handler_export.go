package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-booking-backend/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export handles GET /api/export/:kind with ?format=csv (default) or xlsx.
func (h *Handler) Export(c *gin.Context) {
	kind := c.Param("kind")
	if !export.Known(kind) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown report"})
		return
	}
	report, err := h.exporter.Build(kind)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
		ext         string
	)
	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		err = report.WriteCSV(&buf)
		contentType, ext = "text/csv; charset=utf-8", "csv"
	case "xlsx":
		err = report.WriteXLSX(&buf)
		contentType, ext = xlsxContentType, "xlsx"
	default:
		badRequest(c, "format must be csv or xlsx")
		return
	}
	if err != nil {
		writeError(c, err, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, report.Name, ext))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
