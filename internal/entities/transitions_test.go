package entities_test

import (
	"errors"
	"testing"

	"github.com/mbalabaev/food-order-service/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTransition(t *testing.T) {
	const (
		customerID   = "cust-1"
		restaurantID = "rest-1"
		courierID    = "courier-1"
	)

	customer := entities.Principal{ID: customerID, Role: entities.RoleCustomer}
	otherCustomer := entities.Principal{ID: "cust-2", Role: entities.RoleCustomer}
	restaurant := entities.Principal{ID: "ra-1", Role: entities.RoleRestaurant, RestaurantID: restaurantID}
	otherRestaurant := entities.Principal{ID: "ra-2", Role: entities.RoleRestaurant, RestaurantID: "rest-2"}
	courier := entities.Principal{ID: courierID, Role: entities.RoleDelivery}
	otherCourier := entities.Principal{ID: "courier-2", Role: entities.RoleDelivery}
	admin := entities.Principal{ID: "admin-1", Role: entities.RoleAdmin}

	order := func(status entities.OrderStatus, courier string) entities.Order {
		return entities.Order{
			ID:           "order-1",
			CustomerID:   customerID,
			RestaurantID: restaurantID,
			Status:       status,
			CourierID:    courier,
		}
	}

	testCases := []struct {
		name    string
		order   entities.Order
		actor   entities.Principal
		to      entities.OrderStatus
		wantErr error
	}{
		{
			name:  "restaurant accepts pending order",
			order: order(entities.StatusPending, ""),
			actor: restaurant,
			to:    entities.StatusPreparing,
		},
		{
			name:    "foreign restaurant cannot accept",
			order:   order(entities.StatusPending, ""),
			actor:   otherRestaurant,
			to:      entities.StatusPreparing,
			wantErr: entities.ErrUnauthorized,
		},
		{
			name:    "customer cannot accept own order",
			order:   order(entities.StatusPending, ""),
			actor:   customer,
			to:      entities.StatusPreparing,
			wantErr: entities.ErrUnauthorized,
		},
		{
			name:  "customer cancels own pending order",
			order: order(entities.StatusPending, ""),
			actor: customer,
			to:    entities.StatusCancelled,
		},
		{
			name:    "other customer cannot cancel",
			order:   order(entities.StatusPending, ""),
			actor:   otherCustomer,
			to:      entities.StatusCancelled,
			wantErr: entities.ErrUnauthorized,
		},
		{
			name:  "restaurant cancels pending order",
			order: order(entities.StatusPending, ""),
			actor: restaurant,
			to:    entities.StatusCancelled,
		},
		{
			name:    "customer cannot cancel once preparing",
			order:   order(entities.StatusPreparing, ""),
			actor:   customer,
			to:      entities.StatusCancelled,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:  "restaurant marks order ready",
			order: order(entities.StatusPreparing, ""),
			actor: restaurant,
			to:    entities.StatusReady,
		},
		{
			name:  "courier claims ready order",
			order: order(entities.StatusReady, ""),
			actor: courier,
			to:    entities.StatusOutForDelivery,
		},
		{
			name:    "customer cannot claim ready order",
			order:   order(entities.StatusReady, ""),
			actor:   customer,
			to:      entities.StatusOutForDelivery,
			wantErr: entities.ErrUnauthorized,
		},
		{
			name:    "second courier loses the claim",
			order:   order(entities.StatusReady, courierID),
			actor:   otherCourier,
			to:      entities.StatusOutForDelivery,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:  "assigned courier delivers",
			order: order(entities.StatusOutForDelivery, courierID),
			actor: courier,
			to:    entities.StatusDelivered,
		},
		{
			name:    "other courier cannot deliver",
			order:   order(entities.StatusOutForDelivery, courierID),
			actor:   otherCourier,
			to:      entities.StatusDelivered,
			wantErr: entities.ErrUnauthorized,
		},
		{
			name:    "no skipping from pending to ready",
			order:   order(entities.StatusPending, ""),
			actor:   restaurant,
			to:      entities.StatusReady,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:    "no backwards transition",
			order:   order(entities.StatusReady, ""),
			actor:   restaurant,
			to:      entities.StatusPreparing,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:    "delivered order is terminal",
			order:   order(entities.StatusDelivered, courierID),
			actor:   restaurant,
			to:      entities.StatusPreparing,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:  "admin cancels preparing order",
			order: order(entities.StatusPreparing, ""),
			actor: admin,
			to:    entities.StatusCancelled,
		},
		{
			name:  "admin cancels out for delivery order",
			order: order(entities.StatusOutForDelivery, courierID),
			actor: admin,
			to:    entities.StatusCancelled,
		},
		{
			name:    "admin cannot cancel delivered order",
			order:   order(entities.StatusDelivered, courierID),
			actor:   admin,
			to:      entities.StatusCancelled,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:    "admin cannot cancel cancelled order",
			order:   order(entities.StatusCancelled, ""),
			actor:   admin,
			to:      entities.StatusCancelled,
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:    "admin cannot drive forward transitions",
			order:   order(entities.StatusPending, ""),
			actor:   admin,
			to:      entities.StatusPreparing,
			wantErr: entities.ErrUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := entities.EvaluateTransition(tc.order, tc.actor, tc.to)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestEvaluateTransition_ClaimConflictDetail(t *testing.T) {
	o := entities.Order{
		ID:           "order-1",
		RestaurantID: "rest-1",
		Status:       entities.StatusReady,
		CourierID:    "courier-1",
	}
	actor := entities.Principal{ID: "courier-2", Role: entities.RoleDelivery}

	err := entities.EvaluateTransition(o, actor, entities.StatusOutForDelivery)
	require.Error(t, err)

	var te *entities.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, entities.StatusReady, te.From)
	assert.Equal(t, entities.StatusOutForDelivery, te.To)
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, entities.StatusDelivered.Terminal())
	assert.True(t, entities.StatusCancelled.Terminal())
	assert.False(t, entities.StatusPending.Terminal())
	assert.False(t, entities.StatusReady.Terminal())
}
