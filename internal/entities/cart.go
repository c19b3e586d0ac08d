package entities

import "time"

type ItemSize string

const (
	SizeSmall  ItemSize = "Small"
	SizeMedium ItemSize = "Medium"
	SizeLarge  ItemSize = "Large"
)

func (s ItemSize) Valid() bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

type CartItem struct {
	ID             string
	MenuItemID     string
	Name           string
	UnitPrice      float64
	Quantity       int
	Size           ItemSize
	RestaurantID   string
	RestaurantName string
}

// Cart holds at most one restaurant's items per customer. TotalAmount is
// derived and recomputed on every mutation.
type Cart struct {
	CustomerID  string
	Items       []CartItem
	TotalAmount float64
	UpdatedAt   time.Time
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// RestaurantID returns the restaurant all items belong to, or "" for an
// empty cart.
func (c *Cart) RestaurantID() string {
	if len(c.Items) == 0 {
		return ""
	}
	return c.Items[0].RestaurantID
}

// AddItem enforces the single-restaurant invariant and merges an item with an
// existing {menuItemId, size} line instead of duplicating it. The cart is
// left unchanged on error.
func (c *Cart) AddItem(item CartItem) error {
	if len(c.Items) > 0 && c.Items[0].RestaurantID != item.RestaurantID {
		return ErrRestaurantMismatch
	}
	for i := range c.Items {
		if c.Items[i].MenuItemID == item.MenuItemID && c.Items[i].Size == item.Size {
			c.Items[i].Quantity += item.Quantity
			c.recompute()
			return nil
		}
	}
	c.Items = append(c.Items, item)
	c.recompute()
	return nil
}

// UpdateQuantity sets the quantity of the cart line with the given id.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.recompute()
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes the cart line with the given id.
func (c *Cart) RemoveItem(itemID string) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.recompute()
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear empties the cart without deleting it.
func (c *Cart) Clear() {
	c.Items = nil
	c.TotalAmount = 0
}

// Count is the sum of line quantities.
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) recompute() {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	c.TotalAmount = total
}
