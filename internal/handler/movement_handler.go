package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MovementHandler struct {
	responder
	ledger service.LedgerService
}

func NewMovementHandler(ledger service.LedgerService, log *zap.Logger) *MovementHandler {
	return &MovementHandler{responder: responder{logger: log.Named("handler")}, ledger: ledger}
}

// CreateTransaction records a stock movement
// POST /api/v1/transactions
func (h *MovementHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.CreateMovementRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	res, err := h.ledger.CreateMovement(c.UserContext(), req, getUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}

	view := movementView(res.Transaction)
	view.StockAfter = &res.StockAfter
	return respond(c, fiber.StatusCreated, view, "Transaction created successfully")
}

// GetTransactions lists movements, newest first
// GET /api/v1/transactions
func (h *MovementHandler) GetTransactions(c *fiber.Ctx) error {
	list, err := h.ledger.List(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, movementViews(list), "")
}

// GET /api/v1/transactions/:id
func (h *MovementHandler) GetTransaction(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid transaction ID")
	}

	t, err := h.ledger.Find(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, movementView(t), "")
}
