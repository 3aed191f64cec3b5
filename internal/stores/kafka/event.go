package kafka

import "time"

const TopicOrderCompleted = `storefront.order-completed`

// OrderCompletedEvent is produced once per verified payment, on the actual
// pending-to-completed transition only.
type OrderCompletedEvent struct {
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	UserEmail string    `json:"user_email"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
