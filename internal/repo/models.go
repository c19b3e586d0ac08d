package repo

import (
	"database/sql"
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
)

type Order struct {
	OrderID        string          `db:"order_id"`
	CustomerID     string          `db:"customer_id"`
	RestaurantID   string          `db:"restaurant_id"`
	RestaurantName string          `db:"restaurant_name"`
	TotalAmount    float64         `db:"total_amount"`
	Status         string          `db:"status"`
	CourierID      sql.NullString  `db:"courier_id"`
	Street         string          `db:"street"`
	City           string          `db:"city"`
	State          string          `db:"state"`
	ZipCode        string          `db:"zip_code"`
	Country        sql.NullString  `db:"country"`
	Lat            sql.NullFloat64 `db:"lat"`
	Lng            sql.NullFloat64 `db:"lng"`
	PaymentMethod  string          `db:"payment_method"`
	PaymentStatus  string          `db:"payment_status"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ItemID     string  `db:"item_id"`
	OrderID    string  `db:"order_id"`
	MenuItemID string  `db:"menu_item_id"`
	Name       string  `db:"name"`
	UnitPrice  float64 `db:"unit_price"`
	Quantity   int     `db:"quantity"`
	Size       string  `db:"size"`
}

type StatusHistory struct {
	OrderID    string    `db:"order_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    string    `db:"actor_id"`
	ActorRole  string    `db:"actor_role"`
	OccurredAt time.Time `db:"occurred_at"`
}

type Cart struct {
	CustomerID  string    `db:"customer_id"`
	TotalAmount float64   `db:"total_amount"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type CartItem struct {
	ItemID         string  `db:"item_id"`
	CustomerID     string  `db:"customer_id"`
	MenuItemID     string  `db:"menu_item_id"`
	Name           string  `db:"name"`
	UnitPrice      float64 `db:"unit_price"`
	Quantity       int     `db:"quantity"`
	Size           string  `db:"size"`
	RestaurantID   string  `db:"restaurant_id"`
	RestaurantName string  `db:"restaurant_name"`
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:             o.OrderID,
		CustomerID:     o.CustomerID,
		RestaurantID:   o.RestaurantID,
		RestaurantName: o.RestaurantName,
		TotalAmount:    o.TotalAmount,
		Status:         entities.OrderStatus(o.Status),
		CourierID:      nullStringToString(o.CourierID),
		DeliveryAddress: entities.DeliveryAddress{
			Street:  o.Street,
			City:    o.City,
			State:   o.State,
			ZipCode: o.ZipCode,
			Country: nullStringToString(o.Country),
			Coordinates: entities.Coordinates{
				Lat: o.Lat.Float64,
				Lng: o.Lng.Float64,
			},
		},
		PaymentMethod: entities.PaymentMethod(o.PaymentMethod),
		PaymentStatus: entities.PaymentStatus(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, entities.OrderItem{
				MenuItemID: it.MenuItemID,
				Name:       it.Name,
				UnitPrice:  it.UnitPrice,
				Quantity:   it.Quantity,
				Size:       entities.ItemSize(it.Size),
			})
		}
	}

	return order
}

func HistoryToEntity(h StatusHistory) entities.StatusHistoryEntry {
	return entities.StatusHistoryEntry{
		OrderID:    h.OrderID,
		FromStatus: entities.OrderStatus(h.FromStatus),
		ToStatus:   entities.OrderStatus(h.ToStatus),
		ActorID:    h.ActorID,
		ActorRole:  entities.Role(h.ActorRole),
		OccurredAt: h.OccurredAt,
	}
}

func CartToEntity(c Cart, items []CartItem) entities.Cart {
	cart := entities.Cart{
		CustomerID:  c.CustomerID,
		TotalAmount: c.TotalAmount,
		UpdatedAt:   c.UpdatedAt,
	}
	if len(items) > 0 {
		cart.Items = make([]entities.CartItem, 0, len(items))
		for _, it := range items {
			cart.Items = append(cart.Items, entities.CartItem{
				ID:             it.ItemID,
				MenuItemID:     it.MenuItemID,
				Name:           it.Name,
				UnitPrice:      it.UnitPrice,
				Quantity:       it.Quantity,
				Size:           entities.ItemSize(it.Size),
				RestaurantID:   it.RestaurantID,
				RestaurantName: it.RestaurantName,
			})
		}
	}
	return cart
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
