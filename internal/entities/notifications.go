package entities

// NotificationKind names the templates the notification service renders.
// The coordinator only picks the kind; rendering and delivery channels
// (email, SMS) are the dispatcher's business.
type NotificationKind string

const (
	KindOrderConfirmation  NotificationKind = "order_confirmation"
	KindRestaurantNewOrder NotificationKind = "restaurant_new_order"
	KindOrderReady         NotificationKind = "order_ready"
	KindPaymentCompleted   NotificationKind = "payment_completed"
)
