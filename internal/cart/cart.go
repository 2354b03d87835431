package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gearup-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:"

// Store keeps each customer's cart as a Redis list of JSON-encoded lines,
// preserving the order items were added in. Carts are ephemeral working
// state; durable records live in Postgres.
type Store struct {
	client *redis.Client
}

func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func cartKey(customerID string) string {
	return keyPrefix + customerID
}

// Get returns the customer's cart. A customer with no stored lines gets an
// empty cart, never an error.
func (s *Store) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	members, err := s.client.LRange(ctx, cartKey(customerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	cart := &models.Cart{CustomerID: customerID}
	for _, member := range members {
		var line models.CartLine
		if err := json.Unmarshal([]byte(member), &line); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// AddItem merges the line into the cart. If the product is already present
// its quantity is increased in place, keeping the original position and the
// price recorded when it was first added.
func (s *Store) AddItem(ctx context.Context, customerID string, line models.CartLine) (*models.Cart, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cart.Lines = mergeLine(cart.Lines, line)

	if err := s.write(ctx, customerID, cart.Lines); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the quantity for the product's line in place, keeping its
// position and the price recorded when it was first added. A product not yet
// in the cart is appended as a new line.
func (s *Store) UpdateItem(ctx context.Context, customerID string, line models.CartLine) (*models.Cart, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cart.Lines = setLine(cart.Lines, line)

	if err := s.write(ctx, customerID, cart.Lines); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the line for the given product, if present.
func (s *Store) RemoveItem(ctx context.Context, customerID, productID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cart.Lines = removeLine(cart.Lines, productID)

	if err := s.write(ctx, customerID, cart.Lines); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart. Checkout calls this after the order is persisted.
func (s *Store) Clear(ctx context.Context, customerID string) error {
	return s.client.Del(ctx, cartKey(customerID)).Err()
}

func (s *Store) write(ctx context.Context, customerID string, lines []models.CartLine) error {
	members := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("failed to marshal cart line: %w", err)
		}
		members = append(members, string(data))
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, cartKey(customerID))
	if len(members) > 0 {
		pipe.RPush(ctx, cartKey(customerID), members...)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

func mergeLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Qty += line.Qty
			return lines
		}
	}
	return append(lines, line)
}

func setLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Qty = line.Qty
			return lines
		}
	}
	return append(lines, line)
}

func removeLine(lines []models.CartLine, productID string) []models.CartLine {
	out := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}
