package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gearup-backend/internal/checkout"
	"gearup-backend/internal/metrics"
	"gearup-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the durable-record surface the handlers need. *database.DB
// satisfies it; tests swap in an in-memory fake.
type Store interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error

	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
}

type CartStore interface {
	Get(ctx context.Context, customerID string) (*models.Cart, error)
	AddItem(ctx context.Context, customerID string, line models.CartLine) (*models.Cart, error)
	UpdateItem(ctx context.Context, customerID string, line models.CartLine) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID string) (*models.Cart, error)
	Clear(ctx context.Context, customerID string) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, customerID string, delivery models.DeliveryInfo) (*models.Order, error)
}

type Handler struct {
	store    Store
	carts    CartStore
	checkout CheckoutService
	metrics  *metrics.Collector
}

func New(store Store, carts CartStore, cs CheckoutService, m *metrics.Collector) *Handler {
	return &Handler{
		store:    store,
		carts:    carts,
		checkout: cs,
		metrics:  m,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/customers", h.CreateCustomer)
	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/{customerId}", h.GetCustomer)
	r.Post("/customers/{customerId}/orders", h.CreateOrder)

	r.Post("/products", h.CreateProduct)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Put("/products/{id}", h.UpdateProduct)

	r.Get("/carts/{customerId}", h.GetCart)
	r.Post("/carts/{customerId}/items", h.AddCartItem)
	r.Put("/carts/{customerId}/items/{productId}", h.UpdateCartItem)
	r.Delete("/carts/{customerId}/items/{productId}", h.RemoveCartItem)
	r.Delete("/carts/{customerId}", h.ClearCart)

	r.Get("/orders/{id}", h.GetOrder)
	r.Get("/orders/customer/{customerId}", h.ListOrdersByCustomer)

	r.Get("/metrics", h.GetMetrics)
	r.Get("/health", h.HealthCheck)

	return r
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

type CreateCustomerRequest struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address models.Address `json:"address"`
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "name, email, and phone are required")
		return
	}

	customer := &models.Customer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateCustomer(r.Context(), customer); err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to create customer")
		return
	}

	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: customer})
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerId")

	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get customer")
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "not_found", "Customer not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: customer})
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to list customers")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: customers})
}

type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "name is required")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "invalid_fields", "price and stock must be non-negative")
		return
	}

	product := &models.Product{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: product})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "not_found", "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: product})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: products})
}

type UpdateProductRequest struct {
	Name  string           `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock *int             `json:"stock,omitempty"`
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "not_found", "Product not found")
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid_fields", "price must be non-negative")
			return
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			writeError(w, http.StatusBadRequest, "invalid_fields", "stock must be non-negative")
			return
		}
		product.Stock = *req.Stock
	}

	if err := h.store.UpdateProduct(r.Context(), product); err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: product})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	cart, err := h.carts.Get(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", "Failed to read cart")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: cart})
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.ProductID == "" || req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_fields", "product_id is required and qty must be positive")
		return
	}

	product, err := h.store.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "not_found", "Product not found")
		return
	}

	line := models.CartLine{
		ProductID:  product.ID,
		Qty:        req.Qty,
		PriceAtAdd: product.Price,
	}

	cart, err := h.carts.AddItem(r.Context(), customerID, line)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", "Failed to add cart item")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: cart})
}

type UpdateCartItemRequest struct {
	Qty int `json:"qty"`
}

// UpdateCartItem sets the line's quantity outright. A product not yet in the
// cart is added at its current price, so the route behaves as add-or-update.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	productID := chi.URLParam(r, "productId")

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.Qty <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_fields", "qty must be positive")
		return
	}

	product, err := h.store.GetProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "not_found", "Product not found")
		return
	}

	line := models.CartLine{
		ProductID:  product.ID,
		Qty:        req.Qty,
		PriceAtAdd: product.Price,
	}

	cart, err := h.carts.UpdateItem(r.Context(), customerID, line)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", "Failed to update cart item")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: cart})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	productID := chi.URLParam(r, "productId")

	cart, err := h.carts.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", "Failed to remove cart item")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: cart})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	if err := h.carts.Clear(r.Context(), customerID); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", "Failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

type CreateOrderRequest struct {
	Delivery models.DeliveryInfo `json:"delivery"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	order, err := h.checkout.Checkout(r.Context(), customerID, req.Delivery)
	if err != nil {
		var stockErr *checkout.InsufficientStockError
		var missingErr *checkout.ProductMissingError
		switch {
		case errors.Is(err, checkout.ErrCustomerNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Customer not found")
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "empty_cart", "Cart is empty")
		case errors.Is(err, checkout.ErrMissingPhone):
			writeError(w, http.StatusBadRequest, "invalid_delivery", "Delivery phone is required")
		case errors.As(err, &stockErr):
			writeError(w, http.StatusBadRequest, "insufficient_stock", stockErr.Error())
		case errors.As(err, &missingErr):
			writeError(w, http.StatusBadRequest, "product_missing", missingErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "checkout_error", "Failed to create order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: order})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to get order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "not_found", "Order not found")
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), order.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to resolve customer")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data: map[string]interface{}{
			"order":    order,
			"customer": customer,
		},
	})
}

func (h *Handler) ListOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	orders, err := h.store.ListOrdersByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", "Failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: orders})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: h.metrics.GetStats()})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		},
	})
}
