package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var orderColumns = []string{
	"order_id", "customer_id", "restaurant_id", "restaurant_name",
	"total_amount", "status", "courier_id",
	"street", "city", "state", "zip_code", "country", "lat", "lng",
	"payment_method", "payment_status", "created_at", "updated_at",
}

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postgresRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.CustomerID, o.RestaurantID, o.RestaurantName,
			o.TotalAmount, string(o.Status), nullString(o.CourierID),
			o.DeliveryAddress.Street, o.DeliveryAddress.City, o.DeliveryAddress.State,
			o.DeliveryAddress.ZipCode, nullString(o.DeliveryAddress.Country),
			nullFloat64(o.DeliveryAddress.Coordinates.Lat), nullFloat64(o.DeliveryAddress.Coordinates.Lng),
			string(o.PaymentMethod), string(o.PaymentStatus), o.CreatedAt, o.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "menu_item_id", "name", "unit_price", "quantity", "size")
	for _, it := range o.Items {
		q = q.Values(o.ID, it.MenuItemID, it.Name, it.UnitPrice, it.Quantity, string(it.Size))
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.orderItems(ctx, []string{orderID})
	if err != nil {
		return entities.Order{}, err
	}
	return OrderToEntity(order, items[orderID]), nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	q := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC")

	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.CourierID != "" {
		q = q.Where(sq.Eq{"courier_id": filter.CourierID})
	}
	if filter.CustomerID != "" {
		q = q.Where(sq.Eq{"customer_id": filter.CustomerID})
	}
	if filter.RestaurantID != "" {
		q = q.Where(sq.Eq{"restaurant_id": filter.RestaurantID})
	}
	if filter.UnclaimedOnly {
		q = q.Where(sq.Eq{"courier_id": nil})
	}

	query, args := q.MustSql()
	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	itemsMap, err := r.orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, itemsMap[o.OrderID]))
	}
	return result, nil
}

// UpdateStatus moves the order from one exact status to another. The guard on
// the current status serializes concurrent transitions: a stale caller simply
// matches zero rows.
func (r *postgresRepo) UpdateStatus(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(to)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"order_id": orderID, "status": string(from)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// ClaimOrder is the courier self-claim compare-and-set: a single conditional
// write, so exactly one of N concurrent claimers wins. A courier that already
// holds the claim may repeat it.
func (r *postgresRepo) ClaimOrder(ctx context.Context, orderID, courierID string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(entities.StatusOutForDelivery)).
		Set("courier_id", courierID).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"order_id": orderID, "status": string(entities.StatusReady)}).
		Where(sq.Or{sq.Eq{"courier_id": nil}, sq.Eq{"courier_id": courierID}}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) AppendStatusHistory(ctx context.Context, entry entities.StatusHistoryEntry) error {
	query, args := r.qb.Insert("order_status_history").
		Columns("order_id", "from_status", "to_status", "actor_id", "actor_role", "occurred_at").
		Values(entry.OrderID, string(entry.FromStatus), string(entry.ToStatus),
			entry.ActorID, string(entry.ActorRole), entry.OccurredAt).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func (r *postgresRepo) StatusHistory(ctx context.Context, orderID string) ([]entities.StatusHistoryEntry, error) {
	query, args := r.qb.Select("order_id", "from_status", "to_status", "actor_id", "actor_role", "occurred_at").
		From("order_status_history").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("occurred_at ASC").
		MustSql()

	var rows []StatusHistory
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select status history: %w", err)
	}

	entries := make([]entities.StatusHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryToEntity(row))
	}
	return entries, nil
}

func (r *postgresRepo) GetCart(ctx context.Context, customerID string) (entities.Cart, error) {
	query, args := r.qb.Select("customer_id", "total_amount", "updated_at").
		From("carts").
		Where(sq.Eq{"customer_id": customerID}).
		MustSql()

	var cart Cart
	err := r.getContext(ctx, &cart, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// Carts are created lazily; an absent row is an empty cart.
		return entities.Cart{CustomerID: customerID}, nil
	}
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	query, args = r.qb.Select("item_id", "customer_id", "menu_item_id", "name",
		"unit_price", "quantity", "size", "restaurant_id", "restaurant_name").
		From("cart_items").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("item_id ASC").
		MustSql()

	var items []CartItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to select cart items: %w", err)
	}
	return CartToEntity(cart, items), nil
}

// SaveCart replaces the stored cart with the given one.
func (r *postgresRepo) SaveCart(ctx context.Context, cart entities.Cart) error {
	query, args := r.qb.Insert("carts").
		Columns("customer_id", "total_amount", "updated_at").
		Values(cart.CustomerID, cart.TotalAmount, time.Now().UTC()).
		Suffix("ON CONFLICT (customer_id) DO UPDATE SET total_amount = EXCLUDED.total_amount, updated_at = EXCLUDED.updated_at").
		MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	query, args = r.qb.Delete("cart_items").
		Where(sq.Eq{"customer_id": cart.CustomerID}).
		MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	if len(cart.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("cart_items").
		Columns("item_id", "customer_id", "menu_item_id", "name",
			"unit_price", "quantity", "size", "restaurant_id", "restaurant_name")
	for _, it := range cart.Items {
		q = q.Values(it.ID, cart.CustomerID, it.MenuItemID, it.Name,
			it.UnitPrice, it.Quantity, string(it.Size), it.RestaurantID, it.RestaurantName)
	}
	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save cart items: %w", err)
	}
	return nil
}

func (r *postgresRepo) orderItems(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	query, args := r.qb.Select("order_id", "menu_item_id", "name", "unit_price", "quantity", "size").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}

	itemsMap := make(map[string][]OrderItem, len(orderIDs))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}
	return itemsMap, nil
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
