package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoProductsMatch is returned when a name filter leaves nothing.
var ErrNoProductsMatch = errors.New("no product found")

// Event routing keys.
const (
	EventProductCreated = "product.created"
	EventProductDeleted = "product.deleted"
)

// EventPublisher publishes product events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OperationRecorder records the outcome of product writes.
type OperationRecorder interface {
	ProductOperation(operation string, err error)
}

// ProductEvent is the message published when a product changes.
type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	At        time.Time `json:"at"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	validator *validation.Validator
	publisher EventPublisher
	recorder  OperationRecorder
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a ProductService.
type Option func(*ProductService)

// WithPublisher publishes product events through p.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProductService) { s.publisher = p }
}

// WithRecorder records write outcomes through r.
func WithRecorder(r OperationRecorder) Option {
	return func(s *ProductService) { s.recorder = r }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *ProductService) { s.log = log }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo:      repo,
		validator: validation.New(),
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReloadProducts asks the store to re-read its backing data.
func (s *ProductService) ReloadProducts() error {
	if err := s.repo.Load(); err != nil {
		return fmt.Errorf("failed to reload products: %w", err)
	}
	return nil
}

// SearchProducts returns every product whose name contains name, ignoring
// case. An empty name matches everything. limit is accepted for API
// compatibility but does not truncate the result.
func (s *ProductService) SearchProducts(name string, limit int) ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	if name != "" {
		needle := strings.ToLower(strings.TrimSpace(name))
		filtered := make([]models.Product, 0, len(products))
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%w with name %s", ErrNoProductsMatch, name)
	}
	return products, nil
}

// GetProductByID scans all products for id.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", repositories.ErrProductNotFound, id)
}

// CreateProduct validates body, assigns an ID and creation time, and stores
// the product.
func (s *ProductService) CreateProduct(body []byte) (*models.Product, error) {
	product, err := s.validator.Parse(body)
	if err != nil {
		return nil, err
	}

	product.ID = uuid.New().String()
	product.CreatedAt = s.now().UTC()

	err = s.repo.Create(product)
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.publish(EventProductCreated, product)
	return product, nil
}

// DeleteProduct removes a product and returns it.
func (s *ProductService) DeleteProduct(id string) (*models.Product, error) {
	product, err := s.repo.Delete(id)
	s.record("delete", err)
	if err != nil {
		return nil, err
	}

	s.publish(EventProductDeleted, product)
	return product, nil
}

func (s *ProductService) record(operation string, err error) {
	if s.recorder != nil {
		s.recorder.ProductOperation(operation, err)
	}
}

// publish sends an event without failing the caller.
func (s *ProductService) publish(eventType string, p *models.Product) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(ProductEvent{
		Type:      eventType,
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		At:        s.now().UTC(),
	})
	if err != nil {
		s.log.Error("Failed to marshal product event", zap.String("product_id", p.ID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(eventType, body); err != nil {
		s.log.Warn("Failed to publish product event",
			zap.String("type", eventType),
			zap.String("product_id", p.ID),
			zap.Error(err))
	}
}
