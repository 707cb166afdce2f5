package repositories_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newProduct(id, sku, name string) *models.Product {
	return &models.Product{
		ID:              id,
		SKU:             sku,
		Name:            name,
		Description:     "test product",
		Category:        "Electronics",
		Brand:           "Test",
		Price:           1000,
		Currency:        models.Currency,
		DiscountPercent: 10,
		Stock:           5,
		IsActive:        true,
		Rating:          4.5,
		Tags:            []string{"test"},
		ImageURLs:       []string{"https://cdn.example.com/a.jpg"},
		Dimensions:      models.Dimensions{Length: 10, Width: 5, Height: 2},
		Seller: models.Seller{
			ID:      "6c1b7a0e-3c1f-4a55-9d7e-2f0a9a3e2b11",
			Name:    "Mi Store",
			Email:   "support@mistore.in",
			Website: "https://mistore.in",
		},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newJSONRepo(t *testing.T) (*repositories.JSONProductRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "products.json")
	repo := repositories.NewJSONProductRepository(path)
	require.NoError(t, repo.Load())
	return repo, path
}

func newGORMRepo(t *testing.T) *repositories.GORMProductRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	repo := repositories.NewGORMProductRepository(db)
	require.NoError(t, repo.Load())
	return repo
}

// exerciseRepository runs the behaviour shared by every ProductRepository.
func exerciseRepository(t *testing.T, repo repositories.ProductRepository) {
	products, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, products)

	first := newProduct("11111111-1111-4111-8111-111111111111", "POCO-X6-001", "Poco X6 Pro")
	second := newProduct("22222222-2222-4222-8222-222222222222", "MAC-M4-002", "MacBook M4")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Create(first))
	require.NoError(t, repo.Create(second))

	// Duplicate SKU
	dup := newProduct("33333333-3333-4333-8333-333333333333", "POCO-X6-001", "Poco Copy")
	err = repo.Create(dup)
	assert.True(t, errors.Is(err, repositories.ErrDuplicateSKU))

	// Duplicate ID
	dup = newProduct(first.ID, "OTHER-SKU-003", "Other")
	err = repo.Create(dup)
	assert.True(t, errors.Is(err, repositories.ErrDuplicateID))

	products, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Poco X6 Pro", products[0].Name)
	assert.Equal(t, []string{"test"}, products[0].Tags)
	assert.Equal(t, first.Seller, products[0].Seller)
	assert.Equal(t, first.Dimensions, products[0].Dimensions)

	deleted, err := repo.Delete(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.SKU, deleted.SKU)

	_, err = repo.Delete(first.ID)
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))

	products, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, second.ID, products[0].ID)
}

func TestJSONProductRepository(t *testing.T) {
	repo, _ := newJSONRepo(t)
	exerciseRepository(t, repo)
}

func TestGORMProductRepository(t *testing.T) {
	repo := newGORMRepo(t)
	exerciseRepository(t, repo)
}

func TestJSONProductRepository_CreateAssignsID(t *testing.T) {
	repo, _ := newJSONRepo(t)
	p := newProduct("", "ABC-DEF-001", "No ID")
	require.NoError(t, repo.Create(p))
	assert.Len(t, p.ID, 36)
}

func TestJSONProductRepository_PersistsWithoutDerivedFields(t *testing.T) {
	repo, path := newJSONRepo(t)
	require.NoError(t, repo.Create(newProduct("11111111-1111-4111-8111-111111111111", "POCO-X6-001", "Poco X6 Pro")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "finalPrice")
	assert.NotContains(t, raw[0], "volume_cm3")
	assert.Equal(t, "POCO-X6-001", raw[0]["sku"])

	reloaded := repositories.NewJSONProductRepository(path)
	require.NoError(t, reloaded.Load())
	products, err := reloaded.GetAll()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Poco X6 Pro", products[0].Name)
	assert.True(t, products[0].CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestJSONProductRepository_LoadDiscardsUnsavedState(t *testing.T) {
	repo, path := newJSONRepo(t)
	require.NoError(t, repo.Create(newProduct("11111111-1111-4111-8111-111111111111", "POCO-X6-001", "Poco X6 Pro")))

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	require.NoError(t, repo.Load())
	products, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestJSONProductRepository_LoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo := repositories.NewJSONProductRepository(path)
	err := repo.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode products file")
}
