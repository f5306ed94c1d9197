package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// setupApp wires a Fiber app over in-memory repositories, mirroring the
// route layout in main.go.
func setupApp() (*fiber.App, *services.AuthService, *repositories.MockUserRepository, *repositories.MockOrderRepository) {
	userRepo := repositories.NewMockUserRepository()
	orderRepo := repositories.NewMockOrderRepository()
	productRepo := repositories.NewMockProductRepository()

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	orderService := services.NewOrderService(orderRepo, userRepo, nil, nil)
	productService := services.NewProductService(productRepo)

	authHandler := handlers.NewAuthHandler(authService, nil)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(productService)

	app := fiber.New()
	auth := middleware.AuthRequired(authService)
	admin := middleware.AdminRequired()

	api := app.Group("/api")
	authHandler.RegisterRoutes(api, auth)
	orderHandler.RegisterRoutes(api, auth, admin)
	productHandler.RegisterRoutes(api, auth, admin)

	return app, authService, userRepo, orderRepo
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && err != io.EOF {
		t.Fatalf("failed to decode response body: %v", err)
	}
	resp.Body.Close()
	return resp, decoded
}

func orderPayload(email string, paymentMethod string) models.Order {
	return models.Order{
		Items: []models.OrderItem{
			{ProductID: "prod-1", Name: "Laptop", Price: 1200.00, Quantity: 1},
		},
		ShippingAddress: models.ShippingAddress{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     email,
			Address:   "1 Main St",
			City:      "Springfield",
			ZipCode:   "12345",
		},
		PaymentMethod: paymentMethod,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app, _, _, _ := setupApp()

	register := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp, body := doJSON(t, app, http.MethodPost, "/api/users/register", register, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	user, ok := body["user"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "testuser", user["username"])
	assert.NotContains(t, user, "password")

	// Duplicate registration conflicts
	resp, body = doJSON(t, app, http.MethodPost, "/api/users/register", register, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// Login with the email
	login := map[string]string{"email": "test@example.com", "password": "password123"}
	resp, body = doJSON(t, app, http.MethodPost, "/api/users/login", login, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	// Wrong password
	login["password"] = "nope"
	resp, body = doJSON(t, app, http.MethodPost, "/api/users/login", login, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestProfileRequiresAuth(t *testing.T) {
	app, _, _, _ := setupApp()

	resp, _ := doJSON(t, app, http.MethodGet, "/api/users/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body := doJSON(t, app, http.MethodPost, "/api/users/register", map[string]string{
		"username": "profileuser",
		"email":    "profile@example.com",
		"password": "password123",
	}, "")
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)

	resp, body = doJSON(t, app, http.MethodGet, "/api/users/profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, "profile@example.com", user["email"])
}

func TestCreateOrderAsGuest(t *testing.T) {
	app, _, _, _ := setupApp()

	resp, body := doJSON(t, app, http.MethodPost, "/api/orders", orderPayload("guest@example.com", models.PaymentCOD), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	order, ok := body["order"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "pending", order["status"])
	assert.Len(t, order["payment_code"], 6)
	assert.NotEmpty(t, order["order_number"])
	assert.NotContains(t, order, "user_id")
}

func TestCreateOrderWithEmptyItems(t *testing.T) {
	app, _, _, orderRepo := setupApp()

	payload := orderPayload("guest@example.com", models.PaymentCard)
	payload.Items = nil
	resp, body := doJSON(t, app, http.MethodPost, "/api/orders", payload, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	stored, err := orderRepo.GetAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMyOrdersAndGuestOrders(t *testing.T) {
	app, _, _, _ := setupApp()

	// Register a shopper, then submit an order with the same email while
	// logged out; it should still land on the account.
	_, body := doJSON(t, app, http.MethodPost, "/api/users/register", map[string]string{
		"username": "shopper",
		"email":    "shopper@example.com",
		"password": "password123",
	}, "")
	token, _ := body["token"].(string)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/orders", orderPayload("Shopper@Example.com", models.PaymentCard), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// And one true guest order
	resp, _ = doJSON(t, app, http.MethodPost, "/api/orders", orderPayload("visitor@example.com", models.PaymentCOD), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// my-orders returns only the linked order
	resp, body = doJSON(t, app, http.MethodGet, "/api/orders/my-orders", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders, _ := body["orders"].([]interface{})
	assert.Len(t, orders, 1)

	// guest-orders returns only the unowned order
	resp, body = doJSON(t, app, http.MethodGet, "/api/orders/guest-orders?email=visitor@example.com", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders, _ = body["orders"].([]interface{})
	assert.Len(t, orders, 1)

	// The shopper's email yields nothing on the guest path
	resp, body = doJSON(t, app, http.MethodGet, "/api/orders/guest-orders?email=shopper@example.com", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders, _ = body["orders"].([]interface{})
	assert.Empty(t, orders)

	// Missing email is a validation failure
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/guest-orders", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// my-orders without a token is unauthorized
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/my-orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderStatusUpdate(t *testing.T) {
	app, authService, userRepo, _ := setupApp()

	// Mint an admin token; registration never grants the admin role.
	adminUser := &models.User{Username: "admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	assert.NoError(t, userRepo.Create(context.Background(), adminUser))
	adminToken, err := authService.IssueToken(adminUser)
	assert.NoError(t, err)

	_, body := doJSON(t, app, http.MethodPost, "/api/users/register", map[string]string{
		"username": "plainuser",
		"email":    "plain@example.com",
		"password": "password123",
	}, "")
	userToken, _ := body["token"].(string)

	resp, body := doJSON(t, app, http.MethodPost, "/api/orders", orderPayload("guest@example.com", models.PaymentCard), "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	order, _ := body["order"].(map[string]interface{})
	orderID, _ := order["id"].(string)
	assert.NotEmpty(t, orderID)

	// Non-admin tokens are rejected
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "confirmed"}, userToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown status value is rejected
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "processing"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Illegal transition is rejected
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "delivered"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Legal transition succeeds
	resp, body = doJSON(t, app, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "confirmed"}, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	order, _ = body["order"].(map[string]interface{})
	assert.Equal(t, "confirmed", order["status"])

	// Unknown order id
	resp, _ = doJSON(t, app, http.MethodPatch, "/api/orders/64b7f3a2c9e77a0012ab34cd/status", map[string]string{"status": "confirmed"}, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductEndpoints(t *testing.T) {
	app, authService, userRepo, _ := setupApp()

	adminUser := &models.User{Username: "admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	assert.NoError(t, userRepo.Create(context.Background(), adminUser))
	adminToken, err := authService.IssueToken(adminUser)
	assert.NoError(t, err)

	// Creating a product requires admin
	product := map[string]interface{}{
		"name":        "Smartphone",
		"description": "Latest model smartphone",
		"price":       799.99,
		"stock":       50,
	}
	resp, _ := doJSON(t, app, http.MethodPost, "/api/products", product, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/products", product, adminToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created, _ := body["product"].(map[string]interface{})
	productID, _ := created["id"].(string)
	assert.NotEmpty(t, productID)

	// Listing is public
	resp, body = doJSON(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products, _ := body["products"].([]interface{})
	assert.Len(t, products, 1)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+productID, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Delete and verify
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/"+productID, nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+productID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
