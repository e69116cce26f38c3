package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"zap-dispatch/internal/core/port"
)

// HTTPSender implements port.DeliverySender with a JSON POST to the
// channel's delivery endpoint. Each attempt carries a fresh X-Request-ID so
// delivery problems can be correlated with the provider's logs.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender creates a sender whose requests are bounded by timeout.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	return &HTTPSender{client: &http.Client{Timeout: timeout}}
}

// Send posts the message and returns the observed status code. Any non-2xx
// response or transport failure is an error; the status code is 0 when the
// request never completed.
func (s *HTTPSender) Send(ctx context.Context, url string, msg port.DeliveryMessage) (int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("delivery endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
