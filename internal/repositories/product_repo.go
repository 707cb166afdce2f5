package repositories

import (
	"errors"

	"catalog/internal/models"
)

var (
	// ErrProductNotFound is returned when no product has the requested ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateSKU is returned when a product with the same SKU exists.
	ErrDuplicateSKU = errors.New("product with this SKU already exists")
	// ErrDuplicateID is returned when a product with the same ID exists.
	ErrDuplicateID = errors.New("product with this ID already exists")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Load (re)reads the backing data.
	Load() error
	GetAll() ([]models.Product, error)
	Create(product *models.Product) error
	// Delete removes a product and returns what was removed.
	Delete(id string) (*models.Product, error)
}
