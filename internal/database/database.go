package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearup-backend/internal/models"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Migrate() error {
	ctx := context.Background()

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(50) NOT NULL,
			address_line1 TEXT NOT NULL DEFAULT '',
			address_line2 TEXT NOT NULL DEFAULT '',
			address_city VARCHAR(255) NOT NULL DEFAULT '',
			address_state VARCHAR(255) NOT NULL DEFAULT '',
			address_postal_code VARCHAR(50) NOT NULL DEFAULT '',
			address_country VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,

		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			stock INTEGER NOT NULL CHECK (stock >= 0),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			customer_id UUID NOT NULL REFERENCES customers(id),
			total_amount NUMERIC(12,2) NOT NULL,
			delivery_name TEXT NOT NULL DEFAULT '',
			delivery_phone TEXT NOT NULL DEFAULT '',
			delivery_line1 TEXT NOT NULL DEFAULT '',
			delivery_line2 TEXT NOT NULL DEFAULT '',
			delivery_city TEXT NOT NULL DEFAULT '',
			delivery_state TEXT NOT NULL DEFAULT '',
			delivery_postal_code TEXT NOT NULL DEFAULT '',
			delivery_country TEXT NOT NULL DEFAULT '',
			delivery_instructions TEXT NOT NULL DEFAULT '',
			status VARCHAR(50) NOT NULL DEFAULT 'Pending',
			email_sent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			qty INTEGER NOT NULL CHECK (qty > 0),
			price NUMERIC(12,2) NOT NULL,
			ordinal INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, phone, address_line1, address_line2,
		                       address_city, address_state, address_postal_code, address_country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := db.pool.Exec(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Phone,
		customer.Address.Line1, customer.Address.Line2, customer.Address.City,
		customer.Address.State, customer.Address.PostalCode, customer.Address.Country,
		customer.CreatedAt)
	return err
}

// GetCustomer returns (nil, nil) when no customer exists with the given id.
func (db *DB) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	query := `
		SELECT id, name, email, phone, address_line1, address_line2,
		       address_city, address_state, address_postal_code, address_country, created_at
		FROM customers WHERE id = $1
	`

	var c models.Customer
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.Address.Line1, &c.Address.Line2, &c.Address.City,
		&c.Address.State, &c.Address.PostalCode, &c.Address.Country,
		&c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	query := `
		SELECT id, name, email, phone, address_line1, address_line2,
		       address_city, address_state, address_postal_code, address_country, created_at
		FROM customers ORDER BY created_at DESC
	`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone,
			&c.Address.Line1, &c.Address.Line2, &c.Address.City,
			&c.Address.State, &c.Address.PostalCode, &c.Address.Country,
			&c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (db *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, name, price, stock, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.pool.Exec(ctx, query,
		product.ID, product.Name, product.Price, product.Stock, product.CreatedAt)
	return err
}

// GetProduct returns (nil, nil) when no product exists with the given id.
func (db *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT id, name, price, stock, created_at FROM products WHERE id = $1`

	var p models.Product
	err := db.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	query := `SELECT id, name, price, stock, created_at FROM products ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `UPDATE products SET name = $1, price = $2, stock = $3 WHERE id = $4`
	_, err := db.pool.Exec(ctx, query, product.Name, product.Price, product.Stock, product.ID)
	return err
}

// DecrementStock applies a conditional decrement in a single statement, so
// two concurrent checkouts cannot both pass the stock check and drive stock
// negative. Returns false when the guard rejected the decrement.
func (db *DB) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	query := `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`
	tag, err := db.pool.Exec(ctx, query, qty, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, total_amount, delivery_name, delivery_phone,
		                    delivery_line1, delivery_line2, delivery_city, delivery_state,
		                    delivery_postal_code, delivery_country, delivery_instructions,
		                    status, email_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := db.pool.Exec(ctx, query,
		order.ID, order.CustomerID, order.TotalAmount,
		order.Delivery.Name, order.Delivery.Phone, order.Delivery.Line1, order.Delivery.Line2,
		order.Delivery.City, order.Delivery.State, order.Delivery.PostalCode,
		order.Delivery.Country, order.Delivery.Instructions,
		string(order.Status), order.EmailSent, order.CreatedAt)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, qty, price, ordinal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, item := range order.Items {
		if _, err := db.pool.Exec(ctx, itemQuery,
			order.ID, item.ProductID, item.Name, item.Qty, item.Price, i); err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}
	return nil
}

// GetOrder returns (nil, nil) when no order exists with the given id.
func (db *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, customer_id, total_amount, delivery_name, delivery_phone,
		       delivery_line1, delivery_line2, delivery_city, delivery_state,
		       delivery_postal_code, delivery_country, delivery_instructions,
		       status, email_sent, created_at
		FROM orders WHERE id = $1
	`

	var o models.Order
	var status string
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CustomerID, &o.TotalAmount,
		&o.Delivery.Name, &o.Delivery.Phone, &o.Delivery.Line1, &o.Delivery.Line2,
		&o.Delivery.City, &o.Delivery.State, &o.Delivery.PostalCode,
		&o.Delivery.Country, &o.Delivery.Instructions,
		&status, &o.EmailSent, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)

	items, err := db.getOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (db *DB) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	query := `
		SELECT id, customer_id, total_amount, delivery_name, delivery_phone,
		       delivery_line1, delivery_line2, delivery_city, delivery_state,
		       delivery_postal_code, delivery_country, delivery_instructions,
		       status, email_sent, created_at
		FROM orders WHERE customer_id = $1 ORDER BY created_at DESC
	`

	rows, err := db.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount,
			&o.Delivery.Name, &o.Delivery.Phone, &o.Delivery.Line1, &o.Delivery.Line2,
			&o.Delivery.City, &o.Delivery.State, &o.Delivery.PostalCode,
			&o.Delivery.Country, &o.Delivery.Instructions,
			&status, &o.EmailSent, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = models.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := db.getOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (db *DB) getOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	query := `
		SELECT product_id, name, qty, price
		FROM order_items WHERE order_id = $1 ORDER BY ordinal ASC
	`

	rows, err := db.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Qty, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetOrderEmailSent records the outcome of the confirmation email attempt,
// the only field an order mutates after creation.
func (db *DB) SetOrderEmailSent(ctx context.Context, id string, sent bool) error {
	query := `UPDATE orders SET email_sent = $1 WHERE id = $2`
	_, err := db.pool.Exec(ctx, query, sent, id)
	return err
}
