package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mbalabaev/food-order-service/internal/auth"
	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/internal/payments"
	"github.com/mbalabaev/food-order-service/internal/service"
	"github.com/mbalabaev/food-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	CreateOrder(ctx context.Context, customerID string, address entities.DeliveryAddress, method entities.PaymentMethod) (service.CreateOrderResult, error)
	ConfirmPayment(ctx context.Context, orderID, actorID string) (entities.Order, error)
	Transition(ctx context.Context, orderID string, actor entities.Principal, requested entities.OrderStatus, courierID string) (entities.Order, error)
	ListOrders(ctx context.Context, actor entities.Principal, filter entities.OrderFilter) ([]entities.Order, error)
	GetOrder(ctx context.Context, actor entities.Principal, orderID string) (entities.Order, error)
	StatusHistory(ctx context.Context, actor entities.Principal, orderID string) ([]entities.StatusHistoryEntry, error)
}

type CartService interface {
	GetCart(ctx context.Context, customerID string) (entities.Cart, error)
	AddItem(ctx context.Context, customerID string, item entities.CartItem) (entities.Cart, error)
	UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (entities.Cart, error)
	RemoveItem(ctx context.Context, customerID, itemID string) (entities.Cart, error)
	Clear(ctx context.Context, customerID string) (entities.Cart, error)
	Count(ctx context.Context, customerID string) (int, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	authmw   func(next http.Handler) http.Handler
	orders   OrderService
	carts    CartService
	gateway  payments.Gateway
}

func NewHTTPHandler(logger *slog.Logger, authmw func(next http.Handler) http.Handler, orders OrderService, carts CartService, gateway payments.Gateway) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		authmw:   authmw,
		orders:   orders,
		carts:    carts,
		gateway:  gateway,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authmw)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{order_id}", h.GetOrderByID)
			r.Get("/{order_id}/history", h.GetOrderHistory)
			r.Patch("/{order_id}/status", h.UpdateOrderStatus)
			r.Post("/{order_id}/payment-completed", h.CompletePayment)
			r.Post("/{order_id}/payment-intent", h.CreatePaymentIntent)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Get("/count", h.CartCount)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{item_id}", h.UpdateCartItem)
			r.Delete("/items/{item_id}", h.RemoveCartItem)
		})
	})
}

// CreateOrder converts the caller's cart into a new pending order.
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.orders.CreateOrder(ctx, principal.ID, AddressJSONToEntity(req.DeliveryAddress), entities.PaymentMethod(req.PaymentMethod))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, CreateOrderResponse{
		Order:                     OrderEntityToJSON(result.Order),
		RequiresPaymentProcessing: result.RequiresPaymentProcessing,
	}, http.StatusCreated)
}

// ListOrders returns orders filtered by status and/or courier, narrowed by
// the caller's role.
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	filter := entities.OrderFilter{
		CourierID: r.URL.Query().Get("courierId"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !entities.OrderStatus(status).Valid() {
			utils.WriteError(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = entities.OrderStatus(status)
	}

	orders, err := h.orders.ListOrders(ctx, principal, filter)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	order, err := h.orders.GetOrder(ctx, principal, chi.URLParam(r, "order_id"))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// GetOrderHistory returns the append-only transition log of an order.
func (h *HTTPHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	entries, err := h.orders.StatusHistory(ctx, principal, chi.URLParam(r, "order_id"))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, HistoryEntityToJSON(entries), http.StatusOK)
}

// UpdateOrderStatus drives one order state machine transition on behalf of
// the caller.
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.Transition(ctx, chi.URLParam(r, "order_id"), principal, entities.OrderStatus(req.Status), req.DeliveryPersonID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// CompletePayment marks a card payment as completed. Idempotent; retries are
// safe.
func (h *HTTPHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	order, err := h.orders.ConfirmPayment(ctx, chi.URLParam(r, "order_id"), principal.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// CreatePaymentIntent asks the payment gateway for a client secret so the
// customer can pay a card order.
func (h *HTTPHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	order, err := h.orders.GetOrder(ctx, principal, chi.URLParam(r, "order_id"))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	if order.CustomerID != principal.ID {
		utils.WriteError(w, "not authorized to pay for this order", http.StatusForbidden)
		return
	}
	if order.PaymentMethod != entities.PaymentCard {
		utils.WriteError(w, "order does not require payment processing", http.StatusBadRequest)
		return
	}

	secret, err := h.gateway.CreateIntent(ctx, order)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create payment intent",
			slog.String("order_id", order.ID), slog.Any("error", err))
		utils.WriteError(w, "failed to create payment intent", http.StatusBadGateway)
		return
	}
	utils.WriteJSON(w, PaymentIntentResponse{ClientSecret: secret}, http.StatusOK)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	cart, err := h.carts.GetCart(ctx, principal.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	var req AddCartItemRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, principal.ID, entities.CartItem{
		MenuItemID:     req.MenuItemID,
		Name:           req.Name,
		UnitPrice:      req.Price,
		Quantity:       req.Quantity,
		Size:           entities.ItemSize(req.Size),
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusCreated)
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	var req UpdateQuantityRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, principal.ID, chi.URLParam(r, "item_id"), req.Quantity)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	cart, err := h.carts.RemoveItem(ctx, principal.ID, chi.URLParam(r, "item_id"))
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	cart, err := h.carts.Clear(ctx, principal.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartEntityToJSON(cart), http.StatusOK)
}

func (h *HTTPHandler) CartCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
		return
	}

	count, err := h.carts.Count(ctx, principal.ID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	utils.WriteJSON(w, CartCountResponse{Count: count}, http.StatusOK)
}

func (h *HTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var transitionErr *entities.TransitionError

	switch {
	case errors.Is(err, entities.ErrUnauthenticated):
		utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
	case errors.Is(err, entities.ErrUnauthorized):
		utils.WriteError(w, "not authorized", http.StatusForbidden)
	case errors.Is(err, entities.ErrOrderNotFound),
		errors.Is(err, entities.ErrCartNotFound),
		errors.Is(err, entities.ErrItemNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &transitionErr):
		utils.WriteJSON(w, map[string]string{
			"message":         transitionErr.Error(),
			"currentStatus":   string(transitionErr.From),
			"requestedStatus": string(transitionErr.To),
		}, http.StatusConflict)
	case errors.Is(err, entities.ErrInvalidTransition):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrEmptyCart),
		errors.Is(err, entities.ErrIncompleteAddress),
		errors.Is(err, entities.ErrRestaurantMismatch),
		errors.Is(err, entities.ErrInvalidQuantity):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "internal error", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
