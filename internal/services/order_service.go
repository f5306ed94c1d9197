package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Order failure sentinels. ErrValidation wraps every client-correctable
// submission problem so handlers can map the whole family to a 400.
var (
	ErrValidation        = errors.New("invalid order")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// OrderNotifier sends order emails. Failures are the caller's to log; they
// must never reach the submitting client.
type OrderNotifier interface {
	SendOrderConfirmation(order *models.Order, user *models.User) error
	SendAdminAlert(order *models.Order) error
}

// EventPublisher emits order lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderCreated(payload map[string]interface{}) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	notifier  OrderNotifier
	publisher EventPublisher
}

// NewOrderService creates a new OrderService. The notifier and publisher may
// be nil, in which case the corresponding side effect is skipped.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, notifier OrderNotifier, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		publisher: publisher,
	}
}

// CreateOrder runs the submission pipeline: validate, resolve the purchaser,
// apply defaults, persist, then fire notifications without blocking the
// caller. The returned order carries its derived display number.
func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := validateSubmission(order); err != nil {
		return nil, err
	}

	// Resolve the purchaser by shipping email; a miss means a guest order.
	owner, err := s.userRepo.GetByEmail(ctx, order.ShippingAddress.Email)
	switch {
	case err == nil:
		order.UserID = &owner.ID
	case errors.Is(err, repositories.ErrUserNotFound):
		order.UserID = nil
	default:
		return nil, fmt.Errorf("failed to resolve purchaser: %w", err)
	}

	if order.Total <= 0 {
		order.Total = computeTotal(order.Items)
	}
	order.Status = models.StatusPending
	switch order.PaymentMethod {
	case models.PaymentCOD:
		if order.PaymentCode == "" {
			order.PaymentCode = generatePaymentCode()
		}
		order.PaymentStatus = models.PaymentPending
	case models.PaymentCard:
		// A code only exists for cash on delivery.
		order.PaymentCode = ""
		order.PaymentStatus = models.PaymentCompleted
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	// Detached side effects. The response does not wait on them and their
	// failures never reach the client.
	saved := *order
	go s.dispatchSideEffects(&saved, owner)

	order.OrderNumber = order.DisplayNumber()
	return order, nil
}

// GetOrdersByUser returns the orders owned by a user, newest first.
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return decorate(orders), nil
}

// GetGuestOrders returns guest orders matched by shipping email, newest first.
func (s *OrderService) GetGuestOrders(ctx context.Context, email string) ([]models.Order, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	orders, err := s.orderRepo.GetGuestByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return decorate(orders), nil
}

// GetAllOrders returns every order, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return decorate(orders), nil
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.OrderNumber = order.DisplayNumber()
	return order, nil
}

// UpdateOrderStatus moves an order along the fulfilment state machine. The
// stored status is left untouched when the target value is unknown or the
// transition is not allowed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = status
	order.OrderNumber = order.DisplayNumber()
	return order, nil
}

// dispatchSideEffects sends the confirmation and admin emails and publishes
// the order-created event. Each attempt is independent; every failure is
// logged and swallowed.
func (s *OrderService) dispatchSideEffects(order *models.Order, owner *models.User) {
	if s.notifier != nil {
		if err := s.notifier.SendOrderConfirmation(order, owner); err != nil {
			log.Printf("Failed sending confirmation email for order %s: %v", order.ID.Hex(), err)
		}
		if err := s.notifier.SendAdminAlert(order); err != nil {
			log.Printf("Failed sending admin alert for order %s: %v", order.ID.Hex(), err)
		}
	}

	if s.publisher != nil {
		payload := map[string]interface{}{
			"orderID":       order.ID.Hex(),
			"status":        order.Status,
			"total":         order.Total,
			"paymentMethod": order.PaymentMethod,
			"guest":         order.IsGuest(),
		}
		if err := s.publisher.PublishOrderCreated(payload); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID.Hex(), err)
		}
	}
}

func validateSubmission(order *models.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for _, item := range order.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %s has quantity %d", ErrValidation, item.ProductID, item.Quantity)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %s has negative price", ErrValidation, item.ProductID)
		}
	}
	if order.ShippingAddress.Email == "" {
		return fmt.Errorf("%w: shipping email is required", ErrValidation)
	}
	if order.PaymentMethod != models.PaymentCard && order.PaymentMethod != models.PaymentCOD {
		return fmt.Errorf("%w: unsupported payment method %q", ErrValidation, order.PaymentMethod)
	}
	return nil
}

func computeTotal(items []models.OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// generatePaymentCode returns the 6-digit code a courier collects on cash
// payment.
func generatePaymentCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}

func decorate(orders []models.Order) []models.Order {
	for i := range orders {
		orders[i].OrderNumber = orders[i].DisplayNumber()
	}
	return orders
}
