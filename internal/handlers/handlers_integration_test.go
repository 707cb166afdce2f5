package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp sets up a Fiber app backed by a JSON store in a temp directory.
func setupApp(t *testing.T) (*fiber.App, *repositories.JSONProductRepository) {
	t.Helper()
	repo := repositories.NewJSONProductRepository(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, repo.Load())

	productService := services.NewProductService(repo)
	productHandler := handlers.NewProductHandler(productService, nil)

	app := fiber.New()
	productHandler.RegisterRoutes(app)
	return app, repo
}

func productBody(sku, name string) map[string]interface{} {
	return map[string]interface{}{
		"sku":              sku,
		"name":             name,
		"description":      "A product for testing",
		"category":         "Electronics",
		"brand":            "Poco",
		"price":            20000,
		"discount_percent": 25,
		"stock":            12,
		"is_active":        true,
		"rating":           4.1,
		"tags":             []string{"phone"},
		"image_urls":       []string{"https://cdn.example.com/p.jpg"},
		"dimensions_cm":    map[string]float64{"length": 16.2, "width": 7.4, "height": 0.82},
		"seller": map[string]string{
			"id":      "6c1b7a0e-3c1f-4a55-9d7e-2f0a9a3e2b11",
			"name":    "Mi Store",
			"email":   "sales@mistore.in",
			"website": "https://mistore.in",
		},
	}
}

func do(t *testing.T, app *fiber.App, method, target string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRoot(t *testing.T) {
	app, _ := setupApp(t)

	resp, data := do(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Welcome to FastAPI."}`, string(data))
}

func TestReload(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := do(t, app, http.MethodGet, "/all", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	app, repo := setupApp(t)

	// --- Empty catalog ---
	resp, _ := do(t, app, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// --- Create ---
	resp, data := do(t, app, http.MethodPost, "/products", productBody("POCO-X6-001", "Poco X6 Pro"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &created))
	id, _ := created["id"].(string)
	assert.Len(t, id, 36)
	assert.Equal(t, 15000.0, created["finalPrice"])
	assert.Equal(t, 98.0, created["volume_cm3"])
	assert.Equal(t, "INR", created["currency"])
	assert.NotEmpty(t, created["created_at"])

	resp, _ = do(t, app, http.MethodPost, "/products", productBody("MAC-M4-002", "MacBook M4"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// --- Duplicate SKU is a client error ---
	resp, data = do(t, app, http.MethodPost, "/products", productBody("POCO-X6-001", "Poco Again"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "SKU already exists")

	// --- List and filter ---
	resp, data = do(t, app, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Total int                      `json:"total"`
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 15000.0, list.Items[0]["finalPrice"], "derived fields are recomputed on read")

	resp, data = do(t, app, http.MethodGet, "/products?name=Poco&limit=5", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "Poco X6 Pro", list.Items[0]["name"])

	resp, _ = do(t, app, http.MethodGet, "/products?name=zz", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/products?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/products?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// --- Get by ID ---
	resp, data = do(t, app, http.MethodGet, "/products/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(data, &fetched))
	assert.Equal(t, id, fetched.ID)
	assert.Equal(t, "POCO-X6-001", fetched.SKU)

	resp, _ = do(t, app, http.MethodGet, "/products/00000000-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/products/short", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// --- Delete ---
	resp, data = do(t, app, http.MethodDelete, "/products/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted models.Product
	require.NoError(t, json.Unmarshal(data, &deleted))
	assert.Equal(t, id, deleted.ID)

	resp, _ = do(t, app, http.MethodDelete, "/products/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	products, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	app, _ := setupApp(t)

	body := productBody("ABCDEF-12", "Poco X6 Pro")
	body["seller"].(map[string]string)["email"] = "a@unknown.com"
	resp, data := do(t, app, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &errResp))
	assert.Equal(t, "Validation failed", errResp.Message)
	rules := map[string]string{}
	for _, e := range errResp.Errors {
		rules[e.Field] = e.Rule
	}
	assert.Equal(t, "sku_suffix", rules["sku"])
	assert.Equal(t, "seller_domain", rules["seller.email"])

	body = productBody("ABCDEF-012", "Poco X6 Pro")
	body["stock"] = 0
	resp, data = do(t, app, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "is_active must be false")

	resp, _ = do(t, app, http.MethodPost, "/products", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteProduct_UpperCaseID(t *testing.T) {
	app, repo := setupApp(t)

	resp, data := do(t, app, http.MethodPost, "/products", productBody("POCO-X6-001", "Poco X6 Pro"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created models.Product
	require.NoError(t, json.Unmarshal(data, &created))

	resp, data = do(t, app, http.MethodDelete, "/products/"+strings.ToUpper(created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var deleted models.Product
	require.NoError(t, json.Unmarshal(data, &deleted))
	assert.Equal(t, created.ID, deleted.ID)

	products, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateProduct_UpperCaseSellerID(t *testing.T) {
	app, repo := setupApp(t)

	body := productBody("POCO-X6-001", "Poco X6 Pro")
	body["seller"].(map[string]string)["id"] = "6C1B7A0E-3C1F-4A55-9D7E-2F0A9A3E2B11"
	resp, data := do(t, app, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created models.Product
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "6c1b7a0e-3c1f-4a55-9d7e-2f0a9a3e2b11", created.Seller.ID)

	products, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "6c1b7a0e-3c1f-4a55-9d7e-2f0a9a3e2b11", products[0].Seller.ID)
}

func TestCreateProduct_TypeErrors(t *testing.T) {
	app, _ := setupApp(t)

	body := productBody("POCO-X6-001", "Poco X6 Pro")
	body["stock"] = "many"
	body["price"] = "free"
	resp, data := do(t, app, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Errors []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &errResp))
	rules := map[string]string{}
	for _, e := range errResp.Errors {
		rules[e.Field] = e.Rule
	}
	assert.Equal(t, map[string]string{"stock": "type", "price": "type"}, rules)
}
