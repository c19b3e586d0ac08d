package middleware

import (
	"net/http"
	"strings"

	"github.com/mbalabaev/food-order-service/internal/auth"
	"github.com/mbalabaev/food-order-service/internal/entities"
	"github.com/mbalabaev/food-order-service/pkg/utils"
)

// Auth resolves the bearer credential into a Principal and stores it in the
// request context. Restaurant affiliation missing from the credential may be
// supplied by the restaurantId query parameter or the X-Restaurant-Id header,
// in that precedence order.
func Auth(resolver auth.Resolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerToken(r)
			principal, err := resolver.Resolve(r.Context(), credential)
			if err != nil {
				utils.WriteError(w, "missing or invalid credential", http.StatusUnauthorized)
				return
			}

			if principal.Role == entities.RoleRestaurant && principal.RestaurantID == "" {
				if id := r.URL.Query().Get("restaurantId"); id != "" {
					principal.RestaurantID = id
				} else if id := r.Header.Get("X-Restaurant-Id"); id != "" {
					principal.RestaurantID = id
				}
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
