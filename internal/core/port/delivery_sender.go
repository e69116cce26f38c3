package port

import "context"

// DeliveryMessage is the payload posted to a channel's delivery endpoint.
type DeliveryMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// DeliverySender pushes one message to a delivery endpoint. It returns the
// HTTP status code observed (0 when the request never completed) and an
// error for any non-2xx response or transport failure. Implementations must
// honour ctx cancellation.
type DeliverySender interface {
	Send(ctx context.Context, url string, msg DeliveryMessage) (int, error)
}
