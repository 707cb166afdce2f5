package handlers

import (
	"errors"
	"fmt"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListProductsQuery holds the query parameters of GET /products.
type ListProductsQuery struct {
	Name  string `query:"name" validate:"omitempty,min=1,max=50"`
	Limit int    `query:"limit" validate:"gte=1,lte=100"`
}

// ListProductsResponse is the body of GET /products.
type ListProductsResponse struct {
	Total int              `json:"total"`
	Items []models.Product `json:"items"`
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleRoot)
	router.Get("/all", h.HandleReload)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleRoot returns the greeting.
func (h *ProductHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to FastAPI.",
	})
}

// HandleReload makes the store re-read its data. The response has no body
// of note.
func (h *ProductHandler) HandleReload(c *fiber.Ctx) error {
	if err := h.service.ReloadProducts(); err != nil {
		h.log.Error("Error reloading products", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not reload products",
			"error":   err.Error(),
		})
	}
	return c.JSON(nil)
}

// HandleListProducts lists products, optionally filtered by name.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := ListProductsQuery{Limit: 10}
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  queryErrors(err),
		})
	}

	products, err := h.service.SearchProducts(query.Name, query.Limit)
	if err != nil {
		return h.fail(c, err, "Could not retrieve products")
	}

	return c.JSON(ListProductsResponse{
		Total: len(products),
		Items: products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	if len(productID) != 36 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product ID must be a 36 character UUID",
		})
	}

	product, err := h.service.GetProductByID(productID)
	if err != nil {
		return h.fail(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct validates and stores a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	product, err := h.service.CreateProduct(c.Body())
	if err != nil {
		return h.fail(c, err, "Could not create product")
	}

	h.log.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleDeleteProduct removes a product and returns it.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	parsed, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Product ID must be a valid UUID",
			"error":   err.Error(),
		})
	}
	// Stored IDs are lower-case canonical UUIDs.
	productID := parsed.String()

	product, err := h.service.DeleteProduct(productID)
	if err != nil {
		// Any failure to remove is the caller's problem.
		h.log.Warn("Error deleting product", zap.String("product_id", productID), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}

	h.log.Info("Product deleted", zap.String("product_id", productID))
	return c.JSON(product)
}

// fail maps service errors to responses: validation and store rejections are
// 400, missing products 404, anything else 500.
func (h *ProductHandler) fail(c *fiber.Ctx, err error, message string) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Errors,
		})
	case errors.Is(err, repositories.ErrDuplicateSKU), errors.Is(err, repositories.ErrDuplicateID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	case errors.Is(err, services.ErrNoProductsMatch):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	h.log.Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func queryErrors(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorMessages["query"] = err.Error()
		return errorMessages
	}
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return errorMessages
}
