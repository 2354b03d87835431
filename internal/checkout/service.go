package checkout

import (
	"context"
	"fmt"
	"time"

	"gearup-backend/internal/metrics"
	"gearup-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// DecrementStock returns false when the product had fewer units than
	// requested at the moment of the update.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	SetOrderEmailSent(ctx context.Context, id string, sent bool) error
}

type CartStore interface {
	Get(ctx context.Context, customerID string) (*models.Cart, error)
	Clear(ctx context.Context, customerID string) error
}

// Sender delivers the order confirmation. Its errors are absorbed by the
// checkout service and only ever surface as Order.EmailSent = false.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error
}

type Service struct {
	customers CustomerStore
	products  ProductStore
	orders    OrderStore
	carts     CartStore
	sender    Sender
	metrics   *metrics.Collector
	log       *zap.Logger
}

func NewService(customers CustomerStore, products ProductStore, orders OrderStore, carts CartStore, sender Sender, m *metrics.Collector, log *zap.Logger) *Service {
	return &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		carts:     carts,
		sender:    sender,
		metrics:   m,
		log:       log,
	}
}

// Checkout converts the customer's cart into a persisted order: it
// re-validates stock per line, decrements it, writes the order, empties the
// cart, and attempts a best-effort confirmation email.
//
// Lines are processed strictly in cart order. A failing line aborts the
// checkout but does not undo decrements already applied for earlier lines;
// there is no compensating rollback path. Not idempotent: at-most-once
// semantics rest entirely on the cart being emptied.
func (s *Service) Checkout(ctx context.Context, customerID string, delivery models.DeliveryInfo) (*models.Order, error) {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		s.metrics.RecordCheckoutFailed()
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil {
		s.metrics.RecordCheckoutRejected()
		return nil, ErrCustomerNotFound
	}

	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		s.metrics.RecordCheckoutFailed()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || len(cart.Lines) == 0 {
		s.metrics.RecordCheckoutRejected()
		return nil, ErrEmptyCart
	}

	if delivery.Phone == "" {
		s.metrics.RecordCheckoutRejected()
		return nil, ErrMissingPhone
	}

	var items []models.OrderItem
	total := decimal.Zero

	for _, line := range cart.Lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			s.metrics.RecordCheckoutFailed()
			return nil, fmt.Errorf("failed to fetch product %s: %w", line.ProductID, err)
		}
		if product == nil {
			s.metrics.RecordCheckoutRejected()
			return nil, &ProductMissingError{ProductID: line.ProductID}
		}

		if product.Stock < line.Qty {
			s.metrics.RecordCheckoutRejected()
			return nil, &InsufficientStockError{ProductID: product.ID, Name: product.Name, Available: product.Stock}
		}

		ok, err := s.products.DecrementStock(ctx, product.ID, line.Qty)
		if err != nil {
			s.metrics.RecordCheckoutFailed()
			return nil, fmt.Errorf("failed to decrement stock for product %s: %w", product.ID, err)
		}
		if !ok {
			// Lost a concurrent decrement between the read and the
			// guarded update; re-read for an accurate availability.
			available := 0
			if current, err := s.products.GetProduct(ctx, product.ID); err == nil && current != nil {
				available = current.Stock
			}
			s.metrics.RecordCheckoutRejected()
			return nil, &InsufficientStockError{ProductID: product.ID, Name: product.Name, Available: available}
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       line.Qty,
			Price:     line.PriceAtAdd,
		})
		total = total.Add(line.PriceAtAdd.Mul(decimal.NewFromInt(int64(line.Qty))))
	}

	order := &models.Order{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: total,
		Delivery:    delivery,
		Status:      models.OrderStatusConfirmed,
		EmailSent:   false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.metrics.RecordCheckoutFailed()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.carts.Clear(ctx, customerID); err != nil {
		// The order stands; the stale cart is a follow-up problem.
		s.log.Warn("failed to clear cart after checkout",
			zap.String("customer_id", customerID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	if err := s.sender.SendOrderConfirmation(ctx, order, customer); err != nil {
		s.metrics.RecordEmailFailed()
		s.log.Warn("confirmation email failed",
			zap.String("order_id", order.ID),
			zap.String("to", customer.Email),
			zap.Error(err))
	} else {
		order.EmailSent = true
		s.metrics.RecordEmailSent()
	}

	if err := s.orders.SetOrderEmailSent(ctx, order.ID, order.EmailSent); err != nil {
		s.log.Warn("failed to record email outcome",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.metrics.RecordOrderCreated()
	return order, nil
}
