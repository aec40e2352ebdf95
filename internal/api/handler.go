package api

import (
	"go.uber.org/zap"

	"equipment-booking-backend/internal/export"
	"equipment-booking-backend/internal/importer"
	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/metrics"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	inv       *inventory.Inventory
	importer  *importer.Importer
	exporter  *export.Exporter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	maxUpload int64
}

// NewHandler creates a new API handler. m may be nil.
func NewHandler(inv *inventory.Inventory, m *metrics.Metrics, logger *zap.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{
		inv:       inv,
		importer:  importer.New(inv, logger),
		exporter:  export.New(inv),
		metrics:   m,
		logger:    logger,
		maxUpload: maxUploadBytes,
	}
}
