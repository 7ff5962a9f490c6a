package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportHandler struct {
	responder
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{responder: responder{logger: log.Named("handler")}, reports: reports}
}

// InventorySummary values every active product at its current price
// GET /api/v1/reports/inventory-summary
func (h *ReportHandler) InventorySummary(c *fiber.Ctx) error {
	summary, err := h.reports.InventorySummary(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary.Items,
		"summary": summary.Summary,
	})
}

// GET /api/v1/reports/by-category
func (h *ReportHandler) ByCategory(c *fiber.Ctx) error {
	rows, err := h.reports.ByCategory(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, rows, "")
}

// GET /api/v1/reports/by-type
func (h *ReportHandler) ByType(c *fiber.Ctx) error {
	rows, err := h.reports.ByType(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, rows, "")
}
