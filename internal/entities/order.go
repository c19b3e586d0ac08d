package entities

import "time"

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses have no outbound transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentWallet
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// DefaultZipCode is substituted when the customer omits a zip code.
const DefaultZipCode = "00000"

type Coordinates struct {
	Lat float64
	Lng float64
}

type DeliveryAddress struct {
	Street      string
	City        string
	State       string
	ZipCode     string
	Country     string
	Coordinates Coordinates
}

// Complete reports whether the mandatory address fields are present.
// Zip code is defaulted elsewhere, never required.
func (a DeliveryAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != ""
}

type OrderItem struct {
	MenuItemID string
	Name       string
	UnitPrice  float64
	Quantity   int
	Size       ItemSize
}

// Order is created from a cart snapshot. Items and TotalAmount are frozen at
// creation; Status and CourierID only change through authorized transitions.
type Order struct {
	ID             string
	CustomerID     string
	RestaurantID   string
	RestaurantName string
	Items          []OrderItem
	TotalAmount    float64
	Status         OrderStatus

	// CourierID is empty until a courier claims the order. It is assigned at
	// most once, by the ready -> out_for_delivery compare-and-set.
	CourierID string

	DeliveryAddress DeliveryAddress
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusHistoryEntry records one successful transition, append-only.
type StatusHistoryEntry struct {
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	ActorID    string
	ActorRole  Role
	OccurredAt time.Time
}

// OrderFilter narrows ListOrders. Empty fields are not applied.
type OrderFilter struct {
	Status       OrderStatus
	CourierID    string
	CustomerID   string
	RestaurantID string

	// UnclaimedOnly keeps orders with no courier assigned.
	UnclaimedOnly bool
}
