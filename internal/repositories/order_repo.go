package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// never deleted, so no Delete method exists.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// GetAll returns every order, newest first.
	GetAll(ctx context.Context) ([]models.Order, error)
	// GetByUserID returns orders owned by the given user, newest first.
	GetByUserID(ctx context.Context, userID string) ([]models.Order, error)
	// GetGuestByEmail returns orders with no owning user whose shipping email
	// matches case-insensitively, newest first.
	GetGuestByEmail(ctx context.Context, email string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
}
