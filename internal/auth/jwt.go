package auth

import (
	"context"
	"fmt"

	"github.com/mbalabaev/food-order-service/internal/entities"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Resolver turns a bearer credential into a Principal. Token parsing lives
// only here; no other package re-implements it.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (entities.Principal, error)
}

// RevocationStore answers whether a token id has been revoked. Backed by a
// TTL-indexed cache so every instance observes the same revocations for the
// token's remaining lifetime.
type RevocationStore interface {
	IsRevoked(tokenID string) bool
}

type jwtResolver struct {
	secret  []byte
	revoked RevocationStore
}

func NewJWTResolver(secret string, revoked RevocationStore) *jwtResolver {
	return &jwtResolver{secret: []byte(secret), revoked: revoked}
}

type claims struct {
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

func (r *jwtResolver) Resolve(_ context.Context, credential string) (entities.Principal, error) {
	if credential == "" {
		return entities.Principal{}, entities.ErrUnauthenticated
	}

	var c claims
	tok, err := jwt.ParseWithClaims(credential, &c, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return r.secret, nil
	})
	if err != nil || !tok.Valid {
		return entities.Principal{}, entities.ErrUnauthenticated
	}
	if c.Subject == "" {
		return entities.Principal{}, entities.ErrUnauthenticated
	}
	if c.ID != "" && r.revoked.IsRevoked(c.ID) {
		return entities.Principal{}, entities.ErrUnauthenticated
	}

	role := entities.Role(c.Role)
	switch role {
	case entities.RoleCustomer, entities.RoleRestaurant, entities.RoleDelivery, entities.RoleAdmin:
	default:
		return entities.Principal{}, entities.ErrUnauthenticated
	}

	return entities.Principal{
		ID:           c.Subject,
		Role:         role,
		RestaurantID: c.RestaurantID,
	}, nil
}
