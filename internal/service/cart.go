package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbalabaev/food-order-service/internal/entities"

	"github.com/google/uuid"
)

type cartService struct {
	logger *slog.Logger
	carts  CartRepo
}

func NewCartService(logger *slog.Logger, carts CartRepo) *cartService {
	return &cartService{
		logger: logger.With(slog.String("service", "cart")),
		carts:  carts,
	}
}

// GetCart returns the customer's cart, creating an empty one lazily.
func (s *cartService) GetCart(ctx context.Context, customerID string) (entities.Cart, error) {
	return s.carts.GetCart(ctx, customerID)
}

// AddItem inserts an item, merging with an existing {menuItemId, size} line.
// Items from a different restaurant than the cart's are rejected and the cart
// is left unchanged.
func (s *cartService) AddItem(ctx context.Context, customerID string, item entities.CartItem) (entities.Cart, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	item.ID = uuid.NewString()
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Size == "" {
		item.Size = entities.SizeMedium
	}

	if err := cart.AddItem(item); err != nil {
		return entities.Cart{}, err
	}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (entities.Cart, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return entities.Cart{}, err
	}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, itemID string) (entities.Cart, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := cart.RemoveItem(itemID); err != nil {
		return entities.Cart{}, err
	}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// Clear empties the cart; the cart itself survives.
func (s *cartService) Clear(ctx context.Context, customerID string) (entities.Cart, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}
	cart.Clear()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to save cart: %w", err)
	}
	s.logger.DebugContext(ctx, "cart cleared", slog.String("customer_id", customerID))
	return cart, nil
}

// Count is the total quantity across cart lines.
func (s *cartService) Count(ctx context.Context, customerID string) (int, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart.Count(), nil
}
