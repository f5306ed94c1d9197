package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func sampleOrder(paymentMethod string) *models.Order {
	id, _ := primitive.ObjectIDFromHex("64b7f3a2c9e77a0012ab34cd")
	return &models.Order{
		ID: id,
		Items: []models.OrderItem{
			{ProductID: "prod-1", Name: "Laptop", Price: 1200.00, Quantity: 1},
			{ProductID: "prod-2", Name: "Mouse", Price: 25.00, Quantity: 2},
		},
		Total: 1250.00,
		ShippingAddress: models.ShippingAddress{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Address:   "1 Main St",
			City:      "Springfield",
			ZipCode:   "12345",
		},
		PaymentMethod: paymentMethod,
		Status:        models.StatusPending,
		CreatedAt:     time.Date(2023, 7, 19, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	order := sampleOrder(models.PaymentCOD)
	order.PaymentCode = "042424"

	// Guest order greets by shipping first name and carries the payment code
	html, err := RenderOrderConfirmation(order, nil)
	assert.NoError(t, err)
	assert.Contains(t, html, "Hello Jane,")
	assert.Contains(t, html, "ORD-AB34CD")
	assert.Contains(t, html, "042424")
	assert.Contains(t, html, "Payment Code (for Cash on Delivery)")
	assert.Contains(t, html, "Mouse x 2 = $50.00")
	assert.Contains(t, html, "$1250.00")

	// A linked account greets by username
	user := &models.User{Username: "janedoe", Email: "jane@example.com"}
	html, err = RenderOrderConfirmation(order, user)
	assert.NoError(t, err)
	assert.Contains(t, html, "Hello janedoe,")
}

func TestRenderOrderConfirmation_CardOmitsPaymentCode(t *testing.T) {
	order := sampleOrder(models.PaymentCard)

	html, err := RenderOrderConfirmation(order, nil)
	assert.NoError(t, err)
	assert.NotContains(t, html, "Payment Code")
}

func TestRenderOrderConfirmation_FallbackGreeting(t *testing.T) {
	order := sampleOrder(models.PaymentCard)
	order.ShippingAddress.FirstName = ""

	html, err := RenderOrderConfirmation(order, nil)
	assert.NoError(t, err)
	assert.Contains(t, html, "Hello Customer,")
}

func TestRenderAdminAlert(t *testing.T) {
	order := sampleOrder(models.PaymentCOD)
	order.ShippingAddress.Phone = "555-0100"

	html, err := RenderAdminAlert(order)
	assert.NoError(t, err)
	assert.Contains(t, html, "ORD-AB34CD")
	assert.Contains(t, html, "jane@example.com")
	assert.Contains(t, html, "555-0100")
	assert.Contains(t, html, "$1250.00")

	// Phone block drops out when absent
	order.ShippingAddress.Phone = ""
	html, err = RenderAdminAlert(order)
	assert.NoError(t, err)
	assert.NotContains(t, html, "Phone")
}

func TestRenderPasswordReset(t *testing.T) {
	user := &models.User{Username: "janedoe", Email: "jane@example.com"}

	html, err := RenderPasswordReset(user, "reset-token-123")
	assert.NoError(t, err)
	assert.Contains(t, html, "Hello janedoe,")
	assert.Contains(t, html, "reset-token-123")
}

func TestSendAdminAlert_NoAdminConfigured(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025, From: "shop@example.com"})
	assert.NoError(t, m.SendAdminAlert(sampleOrder(models.PaymentCard)))
}
