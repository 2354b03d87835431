package checkout

import (
	"context"
	"errors"
	"testing"

	"gearup-backend/internal/metrics"
	"gearup-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCustomers struct {
	customers map[string]*models.Customer
	err       error
}

func (f *fakeCustomers) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.customers[id], nil
}

type fakeProducts struct {
	products map[string]*models.Product
	loseRace map[string]bool
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	if f.loseRace[id] {
		return false, nil
	}
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

type fakeOrders struct {
	created    []*models.Order
	emailSent  map[string]bool
	failCreate bool
}

func (f *fakeOrders) CreateOrder(ctx context.Context, order *models.Order) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	cp := *order
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeOrders) SetOrderEmailSent(ctx context.Context, id string, sent bool) error {
	if f.emailSent == nil {
		f.emailSent = make(map[string]bool)
	}
	f.emailSent[id] = sent
	return nil
}

type fakeCarts struct {
	cart      *models.Cart
	cleared   bool
	failClear bool
}

func (f *fakeCarts) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	return f.cart, nil
}

func (f *fakeCarts) Clear(ctx context.Context, customerID string) error {
	if f.failClear {
		return errors.New("redis down")
	}
	f.cleared = true
	return nil
}

type fakeSender struct {
	err  error
	sent []*models.Order
}

func (f *fakeSender) SendOrderConfirmation(ctx context.Context, order *models.Order, customer *models.Customer) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, order)
	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Fixture from the documented scenario: cart [A x2 @ 10.00, B x1 @ 5.00],
// stock A=5, B=3.
func fixture() (*fakeCustomers, *fakeProducts, *fakeOrders, *fakeCarts, *fakeSender) {
	customers := &fakeCustomers{customers: map[string]*models.Customer{
		"cust-1": {ID: "cust-1", Name: "Ada", Email: "ada@example.com", Phone: "555-0100"},
	}}
	products := &fakeProducts{
		products: map[string]*models.Product{
			"prod-a": {ID: "prod-a", Name: "Helmet", Price: price("10.00"), Stock: 5},
			"prod-b": {ID: "prod-b", Name: "Gloves", Price: price("5.00"), Stock: 3},
		},
		loseRace: map[string]bool{},
	}
	orders := &fakeOrders{}
	carts := &fakeCarts{cart: &models.Cart{
		CustomerID: "cust-1",
		Lines: []models.CartLine{
			{ProductID: "prod-a", Qty: 2, PriceAtAdd: price("10.00")},
			{ProductID: "prod-b", Qty: 1, PriceAtAdd: price("5.00")},
		},
	}}
	sender := &fakeSender{}
	return customers, products, orders, carts, sender
}

func newService(c *fakeCustomers, p *fakeProducts, o *fakeOrders, ca *fakeCarts, s *fakeSender) *Service {
	return NewService(c, p, o, ca, s, metrics.New(), zap.NewNop())
}

func delivery() models.DeliveryInfo {
	return models.DeliveryInfo{
		Name:  "Ada Lovelace",
		Phone: "555-0100",
		Line1: "12 Analytical Way",
		City:  "London",
	}
}

func TestCheckout_Success(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.True(t, order.TotalAmount.Equal(price("25.00")), "total was %s", order.TotalAmount)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.True(t, order.EmailSent)
	assert.Equal(t, "cust-1", order.CustomerID)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "prod-a", order.Items[0].ProductID)
	assert.Equal(t, "Helmet", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.True(t, order.Items[0].Price.Equal(price("10.00")))
	assert.Equal(t, "prod-b", order.Items[1].ProductID)
	assert.Equal(t, 1, order.Items[1].Qty)

	assert.Equal(t, 3, products.products["prod-a"].Stock)
	assert.Equal(t, 2, products.products["prod-b"].Stock)
	assert.True(t, carts.cleared)

	require.Len(t, orders.created, 1)
	assert.True(t, orders.emailSent[order.ID])
	require.Len(t, sender.sent, 1)
}

func TestCheckout_CustomerNotFound(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "nope", delivery())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Empty(t, orders.created)
	assert.Equal(t, 5, products.products["prod-a"].Stock)
}

func TestCheckout_EmptyCart(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	carts.cart = &models.Cart{CustomerID: "cust-1"}
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.created)
	assert.Equal(t, 5, products.products["prod-a"].Stock)
	assert.Equal(t, 3, products.products["prod-b"].Stock)
}

func TestCheckout_MissingPhone(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	svc := newService(customers, products, orders, carts, sender)

	d := delivery()
	d.Phone = ""
	order, err := svc.Checkout(context.Background(), "cust-1", d)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrMissingPhone)
	assert.Equal(t, 5, products.products["prod-a"].Stock)
}

func TestCheckout_ProductMissing_NoRollback(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	delete(products.products, "prod-b")
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	assert.Nil(t, order)

	var missingErr *ProductMissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "prod-b", missingErr.ProductID)

	// The first line's decrement stays applied; there is no rollback.
	assert.Equal(t, 3, products.products["prod-a"].Stock)
	assert.Empty(t, orders.created)
	assert.False(t, carts.cleared)
	assert.Empty(t, sender.sent)
}

func TestCheckout_InsufficientStock_NoRollback(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	products.products["prod-b"].Stock = 0
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	assert.Nil(t, order)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod-b", stockErr.ProductID)
	assert.Equal(t, 0, stockErr.Available)
	assert.Contains(t, stockErr.Error(), "Gloves")
	assert.Contains(t, stockErr.Error(), "Available: 0")

	// prod-a was already decremented before prod-b failed.
	assert.Equal(t, 3, products.products["prod-a"].Stock)
	assert.Empty(t, orders.created)
	assert.False(t, carts.cleared)
}

func TestCheckout_ConcurrentDecrementLost(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	products.loseRace["prod-a"] = true
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	assert.Nil(t, order)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod-a", stockErr.ProductID)
	// Availability comes from a re-read after the guarded update refused.
	assert.Equal(t, 5, stockErr.Available)
	assert.Empty(t, orders.created)
}

func TestCheckout_EmailFailure_OrderStillSucceeds(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	sender.err = errors.New("smtp timeout")
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.False(t, order.EmailSent)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.True(t, order.TotalAmount.Equal(price("25.00")))

	require.Len(t, orders.created, 1)
	sent, recorded := orders.emailSent[order.ID]
	assert.True(t, recorded)
	assert.False(t, sent)
	assert.True(t, carts.cleared)
	assert.Equal(t, 3, products.products["prod-a"].Stock)
	assert.Equal(t, 2, products.products["prod-b"].Stock)
}

func TestCheckout_OrderPersistFailure(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	orders.failCreate = true
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	assert.Nil(t, order)
	require.Error(t, err)

	// Not one of the caller-error values; handlers treat it as a 500.
	assert.NotErrorIs(t, err, ErrCustomerNotFound)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	var stockErr *InsufficientStockError
	assert.False(t, errors.As(err, &stockErr))

	assert.False(t, carts.cleared)
	assert.Empty(t, sender.sent)
}

func TestCheckout_CartClearFailure_OrderStands(t *testing.T) {
	customers, products, orders, carts, sender := fixture()
	carts.failClear = true
	svc := newService(customers, products, orders, carts, sender)

	order, err := svc.Checkout(context.Background(), "cust-1", delivery())
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, order.EmailSent)
	require.Len(t, orders.created, 1)
}

func TestCheckout_TotalMatchesItems(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.CartLine
		total string
	}{
		{
			name: "single line",
			lines: []models.CartLine{
				{ProductID: "prod-a", Qty: 1, PriceAtAdd: price("10.00")},
			},
			total: "10.00",
		},
		{
			name: "multiple quantities",
			lines: []models.CartLine{
				{ProductID: "prod-a", Qty: 3, PriceAtAdd: price("10.00")},
				{ProductID: "prod-b", Qty: 2, PriceAtAdd: price("5.00")},
			},
			total: "40.00",
		},
		{
			name: "cart price wins over current product price",
			lines: []models.CartLine{
				{ProductID: "prod-a", Qty: 2, PriceAtAdd: price("7.50")},
			},
			total: "15.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers, products, orders, carts, sender := fixture()
			carts.cart = &models.Cart{CustomerID: "cust-1", Lines: tt.lines}
			svc := newService(customers, products, orders, carts, sender)

			order, err := svc.Checkout(context.Background(), "cust-1", delivery())
			require.NoError(t, err)

			assert.True(t, order.TotalAmount.Equal(price(tt.total)),
				"want %s, got %s", tt.total, order.TotalAmount)

			sum := decimal.Zero
			for _, item := range order.Items {
				sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
			}
			assert.True(t, order.TotalAmount.Equal(sum))
		})
	}
}
