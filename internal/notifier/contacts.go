package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Contact is a delivery target. Phone is optional; an absent phone means SMS
// is skipped, not an error.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ContactLookup resolves recipients from the user and restaurant services.
type ContactLookup interface {
	CustomerContact(ctx context.Context, customerID string) (Contact, error)
	RestaurantContact(ctx context.Context, restaurantID string) (Contact, error)
}

type httpContactLookup struct {
	client        *http.Client
	userBaseURL   string
	restBaseURL   string
	internalToken string
}

// NewHTTPContactLookup calls the user and restaurant services for contact
// info. Calls carry the client's timeout and are never retried; contacts are
// only needed for best-effort notifications.
func NewHTTPContactLookup(userBaseURL, restaurantBaseURL, internalToken string, timeout time.Duration) *httpContactLookup {
	return &httpContactLookup{
		client:        &http.Client{Timeout: timeout},
		userBaseURL:   userBaseURL,
		restBaseURL:   restaurantBaseURL,
		internalToken: internalToken,
	}
}

func (l *httpContactLookup) CustomerContact(ctx context.Context, customerID string) (Contact, error) {
	return l.fetch(ctx, fmt.Sprintf("%s/users/%s/contact", l.userBaseURL, customerID))
}

func (l *httpContactLookup) RestaurantContact(ctx context.Context, restaurantID string) (Contact, error) {
	return l.fetch(ctx, fmt.Sprintf("%s/restaurants/%s/contact", l.restBaseURL, restaurantID))
}

func (l *httpContactLookup) fetch(ctx context.Context, url string) (Contact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to build contact request: %w", err)
	}
	if l.internalToken != "" {
		req.Header.Set("Authorization", "Bearer "+l.internalToken)
	}

	res, err := l.client.Do(req)
	if err != nil {
		return Contact{}, fmt.Errorf("contact lookup failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Contact{}, fmt.Errorf("contact lookup returned status %d", res.StatusCode)
	}

	var contact Contact
	if err := json.NewDecoder(res.Body).Decode(&contact); err != nil {
		return Contact{}, fmt.Errorf("failed to decode contact: %w", err)
	}
	return contact, nil
}
