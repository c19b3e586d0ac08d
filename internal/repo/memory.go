package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
)

// memoryRepo is a mutex-guarded store with the same conditional-update
// semantics as the postgres one. Used for STORAGE=memory deployments and as
// the backing store in tests, where the claim compare-and-set must behave
// exactly like a single conditional write.
type memoryRepo struct {
	mu      sync.Mutex
	orders  map[string]entities.Order
	history map[string][]entities.StatusHistoryEntry
	carts   map[string]entities.Cart
}

func NewMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:  make(map[string]entities.Order),
		history: make(map[string][]entities.StatusHistoryEntry),
		carts:   make(map[string]entities.Cart),
	}
}

func (r *memoryRepo) CreateOrder(_ context.Context, o entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *memoryRepo) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryRepo) ListOrders(_ context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]entities.Order, 0)
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CourierID != "" && o.CourierID != filter.CourierID {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.RestaurantID != "" && o.RestaurantID != filter.RestaurantID {
			continue
		}
		if filter.UnclaimedOnly && o.CourierID != "" {
			continue
		}
		result = append(result, cloneOrder(o))
	}
	slices.SortFunc(result, func(a, b entities.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, orderID string, from, to entities.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return true, nil
}

func (r *memoryRepo) ClaimOrder(_ context.Context, orderID, courierID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != entities.StatusReady {
		return false, nil
	}
	if o.CourierID != "" && o.CourierID != courierID {
		return false, nil
	}
	o.Status = entities.StatusOutForDelivery
	o.CourierID = courierID
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return true, nil
}

func (r *memoryRepo) SetPaymentStatus(_ context.Context, orderID string, status entities.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = o
	return nil
}

func (r *memoryRepo) AppendStatusHistory(_ context.Context, entry entities.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[entry.OrderID] = append(r.history[entry.OrderID], entry)
	return nil
}

func (r *memoryRepo) StatusHistory(_ context.Context, orderID string) ([]entities.StatusHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history[orderID]), nil
}

func (r *memoryRepo) GetCart(_ context.Context, customerID string) (entities.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[customerID]
	if !ok {
		return entities.Cart{CustomerID: customerID}, nil
	}
	return cloneCart(c), nil
}

func (r *memoryRepo) SaveCart(_ context.Context, cart entities.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart.UpdatedAt = time.Now().UTC()
	r.carts[cart.CustomerID] = cloneCart(cart)
	return nil
}

func cloneOrder(o entities.Order) entities.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func cloneCart(c entities.Cart) entities.Cart {
	c.Items = slices.Clone(c.Items)
	return c
}
