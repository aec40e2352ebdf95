package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"equipment-booking-backend/internal/importer"
	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/mw"
)

// writeError maps domain errors onto HTTP responses. extra is merged into the
// body, e.g. the id of a record that was created but not saved.
func writeError(c *gin.Context, err error, extra gin.H) {
	status, body := errorBody(err)
	for k, v := range extra {
		body[k] = v
	}
	if status >= http.StatusInternalServerError {
		mw.LoggerFrom(c).Error("request error", zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	var (
		verr   *inventory.ValidationError
		nf     *inventory.NotFoundError
		cycle  *inventory.CycleError
		clash  *inventory.ConflictError
		schema *importer.SchemaError
		format *importer.FormatError
		perr   *inventory.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields}
	case errors.As(err, &nf):
		return http.StatusNotFound, gin.H{"error": nf.Error()}
	case errors.As(err, &cycle):
		return http.StatusConflict, gin.H{"error": cycle.Error()}
	case errors.As(err, &clash):
		return http.StatusConflict, gin.H{"error": clash.Error(), "date": clash.Date, "equipmentIds": clash.EquipmentIDs}
	case errors.As(err, &schema):
		return http.StatusUnprocessableEntity, gin.H{"error": schema.Error(), "missing": schema.Missing}
	case errors.As(err, &format):
		return http.StatusBadRequest, gin.H{"error": format.Error()}
	case errors.As(err, &perr):
		return http.StatusInternalServerError, gin.H{
			"error":     perr.Error() + "; the change is kept in memory but was not saved",
			"persisted": false,
		}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
