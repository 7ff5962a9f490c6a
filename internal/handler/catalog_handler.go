package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	responder
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{responder: responder{logger: log.Named("handler")}, catalog: catalog}
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), req, getUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, categoryView(category), "Category created")
}

func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	list, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, categoryViews(list), "")
}

func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}
	category, err := h.catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, categoryView(category), "")
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}
	var req service.CategoryRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	category, err := h.catalog.RenameCategory(c.UserContext(), id, req, getUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, categoryView(category), "Category updated")
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}
	if err := h.catalog.DeactivateCategory(c.UserContext(), id, getUserID(c)); err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Category deleted")
}

// CreateProduct registers a product; a non-zero stock_quantity becomes an
// opening IN movement.
// POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	product, err := h.catalog.CreateProduct(c.UserContext(), req, getUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, productView(product), "Product created")
}

func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	list, err := h.catalog.ListProducts(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, productViews(list), "")
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	product, err := h.catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, productView(product), "")
}

// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	var req service.UpdateProductRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	product, err := h.catalog.UpdateProduct(c.UserContext(), id, req, getUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, productView(product), "Product updated")
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, valid := paramID(c, "id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	if err := h.catalog.DeactivateProduct(c.UserContext(), id, getUserID(c)); err != nil {
		return h.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Product deleted")
}
