package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods.
const (
	PaymentCard = "card"
	PaymentCOD  = "cod"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// OrderItem is a single purchased line within an order. Name and price are
// captured at submission time so later catalog edits do not rewrite history.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"product_id" validate:"required"`
	Name      string  `bson:"name" json:"name" validate:"required"`
	Price     float64 `bson:"price" json:"price" validate:"gte=0"`
	Quantity  int     `bson:"quantity" json:"quantity" validate:"required,min=1"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

// ShippingAddress is the delivery contact embedded in an order. For guest
// orders the email here is the only handle on the purchaser.
type ShippingAddress struct {
	FirstName string `bson:"firstName" json:"first_name" validate:"required"`
	LastName  string `bson:"lastName" json:"last_name"`
	Email     string `bson:"email" json:"email" validate:"required,email"`
	Address   string `bson:"address" json:"address" validate:"required"`
	City      string `bson:"city" json:"city" validate:"required"`
	ZipCode   string `bson:"zipCode" json:"zip_code" validate:"required"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Order represents a customer order. UserID is nil for guest orders.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID `bson:"userId,omitempty" json:"user_id,omitempty"`
	Items           []OrderItem         `bson:"items" json:"items" validate:"required,min=1,dive"`
	Total           float64             `bson:"total" json:"total"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shipping_address" validate:"required"`
	PaymentMethod   string              `bson:"paymentMethod" json:"payment_method" validate:"required,oneof=card cod"`
	PaymentCode     string              `bson:"paymentCode,omitempty" json:"payment_code,omitempty"`
	PaymentStatus   string              `bson:"paymentStatus" json:"payment_status"`
	Status          Status              `bson:"status" json:"status"`
	OrderNumber     string              `bson:"-" json:"order_number,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updated_at"`
}

// IsGuest reports whether the order has no linked registered user.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// DisplayNumber derives the human-readable order identifier from the trailing
// characters of the database id.
func (o *Order) DisplayNumber() string {
	hex := o.ID.Hex()
	if len(hex) > 6 {
		hex = hex[len(hex)-6:]
	}
	return "ORD-" + strings.ToUpper(hex)
}
