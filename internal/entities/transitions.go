package entities

// edge identifies one row of the transition table.
type edge struct {
	from OrderStatus
	to   OrderStatus
}

// authorize decides whether the actor may drive the order over this edge.
// The edge itself is already known to exist.
type authorize func(o Order, actor Principal) error

var transitionTable = map[edge]authorize{
	{StatusPending, StatusPreparing}: func(o Order, actor Principal) error {
		if actor.OwnsRestaurant(o.RestaurantID) {
			return nil
		}
		return ErrUnauthorized
	},
	{StatusPending, StatusCancelled}: func(o Order, actor Principal) error {
		switch {
		case actor.Role == RoleAdmin:
			return nil
		case actor.OwnsRestaurant(o.RestaurantID):
			return nil
		case actor.Role == RoleCustomer && actor.ID == o.CustomerID:
			return nil
		}
		return ErrUnauthorized
	},
	{StatusPreparing, StatusReady}: func(o Order, actor Principal) error {
		if actor.OwnsRestaurant(o.RestaurantID) {
			return nil
		}
		return ErrUnauthorized
	},
	{StatusReady, StatusOutForDelivery}: func(o Order, actor Principal) error {
		if actor.Role != RoleDelivery {
			return ErrUnauthorized
		}
		// First claim wins. A courier losing the race gets a state error, not
		// an authorization error: the order is simply no longer claimable.
		if o.CourierID != "" && o.CourierID != actor.ID {
			return &TransitionError{From: o.Status, To: StatusOutForDelivery}
		}
		return nil
	},
	{StatusOutForDelivery, StatusDelivered}: func(o Order, actor Principal) error {
		if actor.Role == RoleDelivery && actor.ID == o.CourierID {
			return nil
		}
		return ErrUnauthorized
	},
}

// EvaluateTransition is the pure order state machine: it maps the order's
// current state, the actor and the requested status to either nil (allowed)
// or one of ErrInvalidTransition / ErrUnauthorized. It never mutates
// anything.
func EvaluateTransition(o Order, actor Principal, to OrderStatus) error {
	// Admin cancellation of any non-terminal order, independent of the table.
	if to == StatusCancelled && actor.Role == RoleAdmin {
		if o.Status.Terminal() {
			return &TransitionError{From: o.Status, To: to}
		}
		return nil
	}

	rule, ok := transitionTable[edge{from: o.Status, to: to}]
	if !ok {
		return &TransitionError{From: o.Status, To: to}
	}
	return rule(o, actor)
}
