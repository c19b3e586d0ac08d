package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/pkg/trm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)

	// UpdateStatus and ClaimOrder are conditional writes. They report whether
	// the guard matched; a false result means the order moved under us.
	UpdateStatus(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error)
	ClaimOrder(ctx context.Context, orderID, courierID string) (bool, error)

	SetPaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error
	AppendStatusHistory(ctx context.Context, entry entities.StatusHistoryEntry) error
	StatusHistory(ctx context.Context, orderID string) ([]entities.StatusHistoryEntry, error)
}

type CartRepo interface {
	GetCart(ctx context.Context, customerID string) (entities.Cart, error)
	SaveCart(ctx context.Context, cart entities.Cart) error
}

// Notifier delivers an order snapshot to interested parties. Calls are
// best-effort: the coordinator never lets a notifier error reach the caller
// of a state change.
type Notifier interface {
	Notify(ctx context.Context, kind entities.NotificationKind, order entities.Order) error
}

const notifyTimeout = 10 * time.Second

type CreateOrderResult struct {
	Order entities.Order

	// RequiresPaymentProcessing is set for card payments: the order is
	// created with a pending payment and the cart survives until the payment
	// is confirmed.
	RequiresPaymentProcessing bool
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	carts     CartRepo
	notifier  Notifier
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, carts CartRepo, notifier Notifier) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		carts:     carts,
		notifier:  notifier,
	}
}

// CreateOrder converts the customer's cart into a pending order. Effects run
// saga-style: the order write commits first, then the cart is cleared, then
// notifications go out; later steps never roll back earlier ones.
func (s *orderService) CreateOrder(ctx context.Context, customerID string, address entities.DeliveryAddress, method entities.PaymentMethod) (CreateOrderResult, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.Empty() {
		return CreateOrderResult{}, entities.ErrEmptyCart
	}
	if !address.Complete() {
		return CreateOrderResult{}, entities.ErrIncompleteAddress
	}
	if address.ZipCode == "" {
		address.ZipCode = entities.DefaultZipCode
	}

	paymentStatus := entities.PaymentCompleted
	if method == entities.PaymentCard {
		paymentStatus = entities.PaymentPending
	}

	items := make([]entities.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, entities.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Size:       it.Size,
		})
	}

	now := time.Now().UTC()
	order := entities.Order{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		RestaurantID:    cart.RestaurantID(),
		RestaurantName:  cart.Items[0].RestaurantName,
		Items:           items,
		TotalAmount:     cart.TotalAmount,
		Status:          entities.StatusPending,
		DeliveryAddress: address,
		PaymentMethod:   method,
		PaymentStatus:   paymentStatus,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("failed to create order: %w", err)
	}
	ordersCreated.Inc()
	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("customer_id", customerID),
		slog.String("payment_method", string(method)),
	)

	// For card payments the cart must survive a failed payment attempt; it is
	// cleared by ConfirmPayment instead.
	if method != entities.PaymentCard {
		if err := s.clearCart(ctx, customerID); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear cart after order creation",
				slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}

	s.notifyAsync(order, entities.KindOrderConfirmation, entities.KindRestaurantNewOrder)

	return CreateOrderResult{
		Order:                     order,
		RequiresPaymentProcessing: method == entities.PaymentCard,
	}, nil
}

// ConfirmPayment marks a card payment as completed and clears the cart.
// Idempotent: confirming an already-completed order is a no-op success, so
// network retries and the gateway webhook cannot double-apply effects.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID, actorID string) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.CustomerID != actorID {
		return entities.Order{}, entities.ErrUnauthorized
	}
	if order.PaymentStatus == entities.PaymentCompleted {
		return order, nil
	}

	if err := s.repo.SetPaymentStatus(ctx, orderID, entities.PaymentCompleted); err != nil {
		return entities.Order{}, fmt.Errorf("failed to complete payment: %w", err)
	}
	order.PaymentStatus = entities.PaymentCompleted

	if err := s.clearCart(ctx, order.CustomerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after payment",
			slog.String("order_id", orderID), slog.Any("error", err))
	}

	s.notifyAsync(order, entities.KindPaymentCompleted)
	return order, nil
}

// FailPayment records a failed gateway payment. An already-completed payment
// is left untouched.
func (s *orderService) FailPayment(ctx context.Context, orderID string) error {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == entities.PaymentCompleted {
		return nil
	}
	return s.repo.SetPaymentStatus(ctx, orderID, entities.PaymentFailed)
}

// Transition drives the order over one edge of the state machine on behalf of
// the actor. The status write is conditional on the status the decision was
// made against, and the history entry commits in the same transaction; on any
// failure nothing is persisted.
func (s *orderService) Transition(ctx context.Context, orderID string, actor entities.Principal, requested entities.OrderStatus, courierID string) (entities.Order, error) {
	if courierID != "" && courierID != actor.ID {
		return entities.Order{}, entities.ErrUnauthorized
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if err := entities.EvaluateTransition(order, actor, requested); err != nil {
		return entities.Order{}, err
	}

	from := order.Status
	claim := from == entities.StatusReady && requested == entities.StatusOutForDelivery

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var ok bool
		var err error
		if claim {
			ok, err = s.repo.ClaimOrder(ctx, orderID, actor.ID)
		} else {
			ok, err = s.repo.UpdateStatus(ctx, orderID, from, requested)
		}
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race: the order changed since we read it.
			if claim {
				claimConflicts.Inc()
			}
			return &entities.TransitionError{From: from, To: requested}
		}
		return s.repo.AppendStatusHistory(ctx, entities.StatusHistoryEntry{
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   requested,
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return entities.Order{}, err
	}
	transitionsTotal.WithLabelValues(string(from), string(requested)).Inc()

	order.Status = requested
	if claim {
		order.CourierID = actor.ID
	}
	order.UpdatedAt = time.Now().UTC()

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("from", string(from)),
		slog.String("to", string(requested)),
		slog.String("actor_id", actor.ID),
		slog.String("actor_role", string(actor.Role)),
	)

	if requested == entities.StatusReady {
		s.notifyAsync(order, entities.KindOrderReady)
	}
	return order, nil
}

// ListOrders narrows the filter by the actor's role. Delivery personnel see
// their own orders unless they ask for ready ones, which are listed
// system-wide so any courier can claim them.
func (s *orderService) ListOrders(ctx context.Context, actor entities.Principal, filter entities.OrderFilter) ([]entities.Order, error) {
	switch actor.Role {
	case entities.RoleDelivery:
		if filter.CourierID != "" && filter.CourierID != actor.ID {
			return nil, entities.ErrUnauthorized
		}
		if filter.CourierID == "" {
			if filter.Status == entities.StatusReady {
				filter.UnclaimedOnly = true
			} else {
				filter.CourierID = actor.ID
			}
		}
	case entities.RoleCustomer:
		filter.CustomerID = actor.ID
	case entities.RoleRestaurant:
		if actor.RestaurantID == "" {
			return nil, entities.ErrUnauthorized
		}
		filter.RestaurantID = actor.RestaurantID
	case entities.RoleAdmin:
		// no narrowing
	default:
		return nil, entities.ErrUnauthorized
	}

	return s.repo.ListOrders(ctx, filter)
}

// GetOrder returns the order if the actor may see it: the owning customer,
// the owning restaurant's admin, an admin, or delivery personnel for their
// assigned orders and any claimable ready order.
func (s *orderService) GetOrder(ctx context.Context, actor entities.Principal, orderID string) (entities.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !canViewOrder(order, actor) {
		return entities.Order{}, entities.ErrUnauthorized
	}
	return order, nil
}

// StatusHistory returns the append-only transition log of an order, gated by
// the same visibility rules as GetOrder.
func (s *orderService) StatusHistory(ctx context.Context, actor entities.Principal, orderID string) ([]entities.StatusHistoryEntry, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(order, actor) {
		return nil, entities.ErrUnauthorized
	}
	return s.repo.StatusHistory(ctx, orderID)
}

func canViewOrder(order entities.Order, actor entities.Principal) bool {
	switch actor.Role {
	case entities.RoleAdmin:
		return true
	case entities.RoleCustomer:
		return actor.ID == order.CustomerID
	case entities.RoleRestaurant:
		return actor.OwnsRestaurant(order.RestaurantID)
	case entities.RoleDelivery:
		return order.Status == entities.StatusReady ||
			(order.CourierID != "" && order.CourierID == actor.ID)
	}
	return false
}

func (s *orderService) clearCart(ctx context.Context, customerID string) error {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return err
	}
	cart.Clear()
	return s.carts.SaveCart(ctx, cart)
}

// notifyAsync dispatches notifications after the state-changing write has
// committed. It runs detached from the request context with its own timeout;
// failures are counted and logged, never surfaced.
func (s *orderService) notifyAsync(order entities.Order, kinds ...entities.NotificationKind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for _, kind := range kinds {
			kind := kind
			g.Go(func() error {
				if err := s.notifier.Notify(ctx, kind, order); err != nil {
					notificationFailures.Inc()
					s.logger.Error("failed to send notification",
						slog.String("order_id", order.ID),
						slog.String("kind", string(kind)),
						slog.Any("error", err),
					)
				}
				return nil
			})
		}
		g.Wait()
	}()
}
