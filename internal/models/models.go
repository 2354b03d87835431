package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
}

// CartLine records the price at the moment the item was added; checkout
// charges that price even if the product is repriced later.
type CartLine struct {
	ProductID  string          `json:"product_id"`
	Qty        int             `json:"qty"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
}

type Cart struct {
	CustomerID string     `json:"customer_id"`
	Lines      []CartLine `json:"lines"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
)

// OrderItem is a denormalized copy of a cart line taken at checkout time,
// so later product edits never alter historical orders.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type DeliveryInfo struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone"`
	Line1        string `json:"line1,omitempty"`
	Line2        string `json:"line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Order is immutable after creation except for EmailSent, which is updated
// once after the confirmation email attempt.
type Order struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Delivery    DeliveryInfo    `json:"delivery"`
	Status      OrderStatus     `json:"status"`
	EmailSent   bool            `json:"email_sent"`
	CreatedAt   time.Time       `json:"created_at"`
}
