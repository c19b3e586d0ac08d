package handler

import (
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
)

type Coordinates struct {
	Lat float64 `json:"lat,omitempty"`
	Lng float64 `json:"lng,omitempty"`
}

type DeliveryAddress struct {
	Street      string      `json:"street" validate:"required"`
	City        string      `json:"city" validate:"required"`
	State       string      `json:"state" validate:"required"`
	ZipCode     string      `json:"zipCode,omitempty"`
	Country     string      `json:"country,omitempty"`
	Coordinates Coordinates `json:"coordinates,omitempty"`
}

type CreateOrderRequest struct {
	DeliveryAddress DeliveryAddress `json:"deliveryAddress" validate:"required"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=cash card wallet"`
}

type CreateOrderResponse struct {
	Order                     Order `json:"order"`
	RequiresPaymentProcessing bool  `json:"requiresPaymentProcessing"`
}

type UpdateStatusRequest struct {
	Status           string `json:"status" validate:"required,oneof=pending preparing ready out_for_delivery delivered cancelled"`
	DeliveryPersonID string `json:"deliveryPersonId,omitempty"`
}

type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Size       string  `json:"size"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	RestaurantID    string          `json:"restaurantId"`
	RestaurantName  string          `json:"restaurantName"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	Status          string          `json:"status"`
	CourierID       string          `json:"courierId,omitempty"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type StatusHistoryEntry struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	OccurredAt time.Time `json:"occurredAt"`
}

type AddCartItemRequest struct {
	MenuItemID     string  `json:"menuItemId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	Quantity       int     `json:"quantity" validate:"omitempty,gte=1"`
	Size           string  `json:"size" validate:"omitempty,oneof=Small Medium Large"`
	RestaurantID   string  `json:"restaurantId" validate:"required"`
	RestaurantName string  `json:"restaurantName,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type CartItem struct {
	ID             string  `json:"id"`
	MenuItemID     string  `json:"menuItemId"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Size           string  `json:"size"`
	RestaurantID   string  `json:"restaurantId"`
	RestaurantName string  `json:"restaurantName"`
}

type Cart struct {
	CustomerID  string     `json:"customerId"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
}

type CartCountResponse struct {
	Count int `json:"count"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func AddressJSONToEntity(a DeliveryAddress) entities.DeliveryAddress {
	return entities.DeliveryAddress{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
		Coordinates: entities.Coordinates{
			Lat: a.Coordinates.Lat,
			Lng: a.Coordinates.Lng,
		},
	}
}

func AddressEntityToJSON(a entities.DeliveryAddress) DeliveryAddress {
	return DeliveryAddress{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
		Coordinates: Coordinates{
			Lat: a.Coordinates.Lat,
			Lng: a.Coordinates.Lng,
		},
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.UnitPrice,
			Quantity:   it.Quantity,
			Size:       string(it.Size),
		})
	}

	return Order{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		RestaurantID:    o.RestaurantID,
		RestaurantName:  o.RestaurantName,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		CourierID:       o.CourierID,
		DeliveryAddress: AddressEntityToJSON(o.DeliveryAddress),
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	return result
}

func HistoryEntityToJSON(entries []entities.StatusHistoryEntry) []StatusHistoryEntry {
	result := make([]StatusHistoryEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, StatusHistoryEntry{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			OccurredAt: e.OccurredAt,
		})
	}
	return result
}

func CartEntityToJSON(c entities.Cart) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItem{
			ID:             it.ID,
			MenuItemID:     it.MenuItemID,
			Name:           it.Name,
			Price:          it.UnitPrice,
			Quantity:       it.Quantity,
			Size:           string(it.Size),
			RestaurantID:   it.RestaurantID,
			RestaurantName: it.RestaurantName,
		})
	}
	return Cart{
		CustomerID:  c.CustomerID,
		Items:       items,
		TotalAmount: c.TotalAmount,
	}
}
