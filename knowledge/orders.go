package knowledge

import (
	"fmt"
	"sort"
)

// Order is a flat order-status record.
type Order struct {
	ID      string
	Status  string
	ETA     string
	Carrier string
}

// OrderBook is an in-memory order registry keyed by the literal order ID.
type OrderBook struct {
	orders map[string]Order
}

// NewOrderBook creates a registry holding the given orders.
func NewOrderBook(orders ...Order) *OrderBook {
	book := &OrderBook{orders: make(map[string]Order, len(orders))}
	for _, o := range orders {
		book.Put(o.ID, o)
	}
	return book
}

var _ Store[Order] = (*OrderBook)(nil)

// Get returns the order with the given ID.
func (b *OrderBook) Get(id string) (Order, bool) {
	o, ok := b.orders[NormalizeKey(id)]
	return o, ok
}

// Put adds or replaces an order.
func (b *OrderBook) Put(id string, o Order) {
	b.orders[NormalizeKey(id)] = o
}

// List returns all orders sorted by ID.
func (b *OrderBook) List() []Order {
	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Status formats the status line for an order, or returns a NotFoundError
// carrying the caller-supplied ID on a miss.
func (b *OrderBook) Status(id string) (string, error) {
	o, ok := b.Get(id)
	if !ok {
		return "", &NotFoundError{Kind: "order", Key: id}
	}
	return fmt.Sprintf("Order %s: Status = %s, ETA = %s, Carrier = %s", o.ID, o.Status, o.ETA, o.Carrier), nil
}

// DefaultOrders returns the demo order registry.
func DefaultOrders() *OrderBook {
	return NewOrderBook(
		Order{ID: "123", Status: "Shipped", ETA: "2-3 days", Carrier: "FastEx"},
		Order{ID: "456", Status: "Processing", ETA: "5-7 days", Carrier: "LogiPak"},
		Order{ID: "789", Status: "Delivered", ETA: "N/A", Carrier: "FastEx"},
	)
}
