package entities

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant_admin"
	RoleDelivery   Role = "delivery_personnel"
	RoleAdmin      Role = "admin"
)

// Principal is the authenticated caller. All identifiers are canonical
// strings; comparisons elsewhere never happen in any other form.
type Principal struct {
	ID   string
	Role Role

	// RestaurantID is the restaurant a restaurant_admin is affiliated with.
	// Empty for every other role.
	RestaurantID string
}

// OwnsRestaurant reports whether the principal is the admin of the given
// restaurant.
func (p Principal) OwnsRestaurant(restaurantID string) bool {
	return p.Role == RoleRestaurant && p.RestaurantID != "" && p.RestaurantID == restaurantID
}
