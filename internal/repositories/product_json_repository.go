package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"catalog/internal/models"

	"github.com/google/uuid"
)

// record is the stored form of a product; it drops the derived fields that
// models.Product adds when encoded.
type record models.Product

// JSONProductRepository keeps products in memory and mirrors every change
// to a JSON file.
type JSONProductRepository struct {
	path     string
	products []models.Product
	mu       sync.RWMutex
}

// NewJSONProductRepository creates a repository backed by the file at path.
// Call Load to read existing data.
func NewJSONProductRepository(path string) *JSONProductRepository {
	return &JSONProductRepository{
		path: path,
	}
}

// Load replaces the in-memory products with the file contents. A missing
// file is an empty catalog.
func (r *JSONProductRepository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.products = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read products file %s: %w", r.path, err)
	}

	var products []models.Product
	if len(data) > 0 {
		if err := json.Unmarshal(data, &products); err != nil {
			return fmt.Errorf("failed to decode products file %s: %w", r.path, err)
		}
	}
	r.products = products
	return nil
}

// GetAll returns a copy of all products in insertion order.
func (r *JSONProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, len(r.products))
	copy(productList, r.products)
	return productList, nil
}

// Create appends a product and saves the file.
func (r *JSONProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
		if p.ID == product.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, product.ID)
		}
	}

	products := append(r.products, *product)
	if err := r.save(products); err != nil {
		return err
	}
	r.products = products
	return nil
}

// Delete removes a product by its ID and saves the file.
func (r *JSONProductRepository) Delete(id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID != id {
			continue
		}
		products := make([]models.Product, 0, len(r.products)-1)
		products = append(products, r.products[:i]...)
		products = append(products, r.products[i+1:]...)
		if err := r.save(products); err != nil {
			return nil, err
		}
		r.products = products
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// save writes products to a temp file and renames it over the target.
func (r *JSONProductRepository) save(products []models.Product) error {
	records := make([]record, len(products))
	for i, p := range products {
		records[i] = record(p)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".products-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write products: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write products: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace products file: %w", err)
	}
	return nil
}
