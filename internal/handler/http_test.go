package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mbalabaev/food-order-service/internal/auth"
	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/internal/handler"
	"github.com/mbalabaev/food-order-service/internal/repo"
	"github.com/mbalabaev/food-order-service/internal/service"
	"github.com/mbalabaev/food-order-service/pkg/trm"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// principalHeader lets tests impersonate any caller without minting tokens.
const (
	principalHeader  = "X-Test-Principal"
	roleHeader       = "X-Test-Role"
	restaurantHeader = "X-Test-Restaurant"
)

func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(principalHeader)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal := entities.Principal{
			ID:           id,
			Role:         entities.Role(r.Header.Get(roleHeader)),
			RestaurantID: r.Header.Get(restaurantHeader),
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

type stubGateway struct {
	secret string
	err    error
}

func (g stubGateway) CreateIntent(context.Context, entities.Order) (string, error) {
	return g.secret, g.err
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, entities.NotificationKind, entities.Order) error {
	return nil
}

type testEnv struct {
	router chi.Router
	store  interface {
		service.OrderRepo
		service.CartRepo
	}
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repo.NewMemoryRepo()

	orders := service.NewOrderService(logger, trm.NewNopManager(), store, store, nopNotifier{})
	carts := service.NewCartService(logger, store)

	h := handler.NewHTTPHandler(logger, testAuth, orders, carts, stubGateway{secret: "pi_secret_123"})

	router := chi.NewRouter()
	h.Init(router)
	return testEnv{router: router, store: store}
}

func (e testEnv) do(t *testing.T, method, target string, body string, p entities.Principal) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if p.ID != "" {
		req.Header.Set(principalHeader, p.ID)
		req.Header.Set(roleHeader, string(p.Role))
		if p.RestaurantID != "" {
			req.Header.Set(restaurantHeader, p.RestaurantID)
		}
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr.Result()
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func (e testEnv) seedCart(t *testing.T, customerID string) {
	t.Helper()
	cart := entities.Cart{CustomerID: customerID}
	require.NoError(t, cart.AddItem(entities.CartItem{
		ID:             "item-1",
		MenuItemID:     "menu-1",
		Name:           "Margherita",
		UnitPrice:      12.0,
		Quantity:       2,
		Size:           entities.SizeMedium,
		RestaurantID:   "rest-1",
		RestaurantName: "Pizza Place",
	}))
	require.NoError(t, e.store.SaveCart(context.Background(), cart))
}

func (e testEnv) seedOrder(t *testing.T, o entities.Order) entities.Order {
	t.Helper()
	if o.Status == "" {
		o.Status = entities.StatusPending
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = entities.PaymentCash
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = entities.PaymentCompleted
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	require.NoError(t, e.store.CreateOrder(context.Background(), o))
	return o
}

var (
	customer   = entities.Principal{ID: "cust-1", Role: entities.RoleCustomer}
	restaurant = entities.Principal{ID: "ra-1", Role: entities.RoleRestaurant, RestaurantID: "rest-1"}
	courier    = entities.Principal{ID: "courier-1", Role: entities.RoleDelivery}
)

func TestHTTPHandler_CreateOrder(t *testing.T) {
	validBody := `{
		"deliveryAddress": {"street": "12 Baker St", "city": "Springfield", "state": "IL"},
		"paymentMethod": "cash"
	}`

	t.Run("unauthenticated", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.do(t, http.MethodPost, "/orders", validBody, entities.Principal{})
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCart(t, customer.ID)

		res := env.do(t, http.MethodPost, "/orders", validBody, customer)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var resp handler.CreateOrderResponse
		decodeBody(t, res, &resp)
		assert.NotEmpty(t, resp.Order.ID)
		assert.Equal(t, "pending", resp.Order.Status)
		assert.Equal(t, "completed", resp.Order.PaymentStatus)
		assert.False(t, resp.RequiresPaymentProcessing)
	})

	t.Run("empty cart", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.do(t, http.MethodPost, "/orders", validBody, customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("missing address fields", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCart(t, customer.ID)

		body := `{"deliveryAddress": {"street": "12 Baker St"}, "paymentMethod": "cash"}`
		res := env.do(t, http.MethodPost, "/orders", body, customer)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var resp struct {
			Fields map[string]string `json:"fields"`
		}
		decodeBody(t, res, &resp)
		assert.Contains(t, resp.Fields, "City")
	})

	t.Run("unknown payment method", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCart(t, customer.ID)

		body := `{
			"deliveryAddress": {"street": "12 Baker St", "city": "Springfield", "state": "IL"},
			"paymentMethod": "crypto"
		}`
		res := env.do(t, http.MethodPost, "/orders", body, customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestHTTPHandler_UpdateOrderStatus(t *testing.T) {
	t.Run("restaurant accepts order", func(t *testing.T) {
		env := newTestEnv(t)
		o := env.seedOrder(t, entities.Order{ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1"})

		res := env.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", `{"status": "preparing"}`, restaurant)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.Order
		decodeBody(t, res, &resp)
		assert.Equal(t, "preparing", resp.Status)
	})

	t.Run("foreign restaurant is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		o := env.seedOrder(t, entities.Order{ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1"})

		foreign := entities.Principal{ID: "ra-2", Role: entities.RoleRestaurant, RestaurantID: "rest-2"}
		res := env.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", `{"status": "preparing"}`, foreign)
		defer res.Body.Close()
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("conflict reports both statuses", func(t *testing.T) {
		env := newTestEnv(t)
		o := env.seedOrder(t, entities.Order{
			ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1",
			Status: entities.StatusReady, CourierID: "courier-9",
		})

		res := env.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", `{"status": "out_for_delivery"}`, courier)
		assert.Equal(t, http.StatusConflict, res.StatusCode)

		var resp map[string]string
		decodeBody(t, res, &resp)
		assert.Equal(t, "ready", resp["currentStatus"])
		assert.Equal(t, "out_for_delivery", resp["requestedStatus"])
	})

	t.Run("courier claims ready order", func(t *testing.T) {
		env := newTestEnv(t)
		o := env.seedOrder(t, entities.Order{
			ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1",
			Status: entities.StatusReady,
		})

		body := `{"status": "out_for_delivery", "deliveryPersonId": "courier-1"}`
		res := env.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", body, courier)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.Order
		decodeBody(t, res, &resp)
		assert.Equal(t, "courier-1", resp.CourierID)
	})

	t.Run("bogus status value", func(t *testing.T) {
		env := newTestEnv(t)
		o := env.seedOrder(t, entities.Order{ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1"})

		res := env.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", `{"status": "teleported"}`, restaurant)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.do(t, http.MethodPatch, "/orders/missing/status", `{"status": "preparing"}`, restaurant)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestHTTPHandler_GetOrderByID(t *testing.T) {
	env := newTestEnv(t)
	o := env.seedOrder(t, entities.Order{ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1"})

	t.Run("owner reads order", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/orders/"+o.ID, "", customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.Order
		decodeBody(t, res, &resp)
		assert.Equal(t, o.ID, resp.ID)
	})

	t.Run("foreign customer is forbidden", func(t *testing.T) {
		other := entities.Principal{ID: "cust-2", Role: entities.RoleCustomer}
		res := env.do(t, http.MethodGet, "/orders/"+o.ID, "", other)
		defer res.Body.Close()
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/orders/missing", "", customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, entities.Order{ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1"})
	env.seedOrder(t, entities.Order{ID: "o2", CustomerID: "cust-2", RestaurantID: "rest-1", Status: entities.StatusReady})

	t.Run("customer sees own orders", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/orders", "", customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp []handler.Order
		decodeBody(t, res, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "o1", resp[0].ID)
	})

	t.Run("courier lists claimable orders", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/orders?status=ready", "", courier)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp []handler.Order
		decodeBody(t, res, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "o2", resp[0].ID)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/orders?status=bogus", "", customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestHTTPHandler_PaymentIntent(t *testing.T) {
	env := newTestEnv(t)
	card := env.seedOrder(t, entities.Order{
		ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1",
		PaymentMethod: entities.PaymentCard, PaymentStatus: entities.PaymentPending,
	})
	cash := env.seedOrder(t, entities.Order{ID: "o2", CustomerID: customer.ID, RestaurantID: "rest-1"})

	t.Run("returns client secret", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/orders/"+card.ID+"/payment-intent", "", customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.PaymentIntentResponse
		decodeBody(t, res, &resp)
		assert.Equal(t, "pi_secret_123", resp.ClientSecret)
	})

	t.Run("cash order needs no intent", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/orders/"+cash.ID+"/payment-intent", "", customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("gateway failure maps to bad gateway", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		store := repo.NewMemoryRepo()
		orders := service.NewOrderService(logger, trm.NewNopManager(), store, store, nopNotifier{})
		carts := service.NewCartService(logger, store)
		h := handler.NewHTTPHandler(logger, testAuth, orders, carts, stubGateway{err: errors.New("gateway down")})

		router := chi.NewRouter()
		h.Init(router)
		env := testEnv{router: router, store: store}
		o := env.seedOrder(t, entities.Order{
			ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1",
			PaymentMethod: entities.PaymentCard, PaymentStatus: entities.PaymentPending,
		})

		res := env.do(t, http.MethodPost, "/orders/"+o.ID+"/payment-intent", "", customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	})
}

func TestHTTPHandler_CompletePayment(t *testing.T) {
	env := newTestEnv(t)
	env.seedCart(t, customer.ID)
	o := env.seedOrder(t, entities.Order{
		ID: "o1", CustomerID: customer.ID, RestaurantID: "rest-1",
		PaymentMethod: entities.PaymentCard, PaymentStatus: entities.PaymentPending,
	})

	res := env.do(t, http.MethodPost, "/orders/"+o.ID+"/payment-completed", "", customer)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var resp handler.Order
	decodeBody(t, res, &resp)
	assert.Equal(t, "completed", resp.PaymentStatus)

	// Retrying the confirmation stays a success.
	res = env.do(t, http.MethodPost, "/orders/"+o.ID+"/payment-completed", "", customer)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHTTPHandler_Cart(t *testing.T) {
	env := newTestEnv(t)

	addBody := `{
		"menuItemId": "menu-1",
		"name": "Margherita",
		"price": 12.0,
		"quantity": 2,
		"restaurantId": "rest-1",
		"restaurantName": "Pizza Place"
	}`

	t.Run("add item", func(t *testing.T) {
		res := env.do(t, http.MethodPost, "/cart/items", addBody, customer)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var resp handler.Cart
		decodeBody(t, res, &resp)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Medium", resp.Items[0].Size)
		assert.InDelta(t, 24.0, resp.TotalAmount, 1e-9)
	})

	t.Run("item from another restaurant is rejected", func(t *testing.T) {
		body := `{"menuItemId": "menu-9", "name": "Sushi", "price": 9.0, "restaurantId": "rest-2"}`
		res := env.do(t, http.MethodPost, "/cart/items", body, customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("count", func(t *testing.T) {
		res := env.do(t, http.MethodGet, "/cart/count", "", customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.CartCountResponse
		decodeBody(t, res, &resp)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("update quantity", func(t *testing.T) {
		cart, err := env.store.GetCart(context.Background(), customer.ID)
		require.NoError(t, err)
		require.NotEmpty(t, cart.Items)

		res := env.do(t, http.MethodPatch, "/cart/items/"+cart.Items[0].ID, `{"quantity": 5}`, customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.Cart
		decodeBody(t, res, &resp)
		assert.Equal(t, 5, resp.Items[0].Quantity)
	})

	t.Run("remove unknown item", func(t *testing.T) {
		res := env.do(t, http.MethodDelete, "/cart/items/missing", "", customer)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("clear", func(t *testing.T) {
		res := env.do(t, http.MethodDelete, "/cart", "", customer)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var resp handler.Cart
		decodeBody(t, res, &resp)
		assert.Empty(t, resp.Items)
	})
}
