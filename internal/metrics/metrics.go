package metrics

import (
	"sync/atomic"
)

type Collector struct {
	ordersCreated    int64
	checkoutRejected int64
	checkoutFailed   int64
	emailsSent       int64
	emailsFailed     int64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordOrderCreated() {
	atomic.AddInt64(&c.ordersCreated, 1)
}

// RecordCheckoutRejected counts caller errors: missing customer, empty cart,
// insufficient stock, invalid delivery input.
func (c *Collector) RecordCheckoutRejected() {
	atomic.AddInt64(&c.checkoutRejected, 1)
}

// RecordCheckoutFailed counts server-side failures during checkout writes.
func (c *Collector) RecordCheckoutFailed() {
	atomic.AddInt64(&c.checkoutFailed, 1)
}

func (c *Collector) RecordEmailSent() {
	atomic.AddInt64(&c.emailsSent, 1)
}

func (c *Collector) RecordEmailFailed() {
	atomic.AddInt64(&c.emailsFailed, 1)
}

func (c *Collector) GetOrdersCreated() int64 {
	return atomic.LoadInt64(&c.ordersCreated)
}

func (c *Collector) GetCheckoutRejected() int64 {
	return atomic.LoadInt64(&c.checkoutRejected)
}

func (c *Collector) GetCheckoutFailed() int64 {
	return atomic.LoadInt64(&c.checkoutFailed)
}

func (c *Collector) GetEmailsSent() int64 {
	return atomic.LoadInt64(&c.emailsSent)
}

func (c *Collector) GetEmailsFailed() int64 {
	return atomic.LoadInt64(&c.emailsFailed)
}

type Stats struct {
	OrdersCreated    int64 `json:"orders_created"`
	CheckoutRejected int64 `json:"checkout_rejected"`
	CheckoutFailed   int64 `json:"checkout_failed"`
	EmailsSent       int64 `json:"emails_sent"`
	EmailsFailed     int64 `json:"emails_failed"`
}

func (c *Collector) GetStats() Stats {
	return Stats{
		OrdersCreated:    c.GetOrdersCreated(),
		CheckoutRejected: c.GetCheckoutRejected(),
		CheckoutFailed:   c.GetCheckoutFailed(),
		EmailsSent:       c.GetEmailsSent(),
		EmailsFailed:     c.GetEmailsFailed(),
	}
}

func (c *Collector) Reset() {
	atomic.StoreInt64(&c.ordersCreated, 0)
	atomic.StoreInt64(&c.checkoutRejected, 0)
	atomic.StoreInt64(&c.checkoutFailed, 0)
	atomic.StoreInt64(&c.emailsSent, 0)
	atomic.StoreInt64(&c.emailsFailed, 0)
}
