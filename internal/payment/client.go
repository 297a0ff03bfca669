package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Outcome status constants. The payment provider answers AUTHORIZED or
// FAILED; UNAVAILABLE is synthesized locally when the provider cannot be
// reached at all (transport failure, exhausted retries, open circuit).
const (
	StatusAuthorized  = "AUTHORIZED"
	StatusFailed      = "FAILED"
	StatusUnavailable = "UNAVAILABLE"
)

// Outcome is the result of a payment call. It is a value, never an error:
// expected payment failures flow through the checkout saga as data so the
// orchestrator can decide how to compensate.
type Outcome struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Authorized reports whether the payment was authorized.
func (o Outcome) Authorized() bool {
	return o.Status == StatusAuthorized
}

// Unavailable reports whether the provider could not be reached.
func (o Outcome) Unavailable() bool {
	return o.Status == StatusUnavailable
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client calls the external payment service. It is expected to be wired with
// a circuit-breaker-protected HTTP client; any error surfaced by the
// transport layer (including a fast-failing open breaker) becomes an
// UNAVAILABLE outcome.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a payment service client.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type authorizeRequest struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
}

// Authorize requests payment authorization for an order.
func (c *Client) Authorize(ctx context.Context, tenantID, orderID, buyerID string, amount int64) Outcome {
	body, err := json.Marshal(authorizeRequest{
		OrderID: orderID,
		UserID:  buyerID,
		Amount:  amount,
	})
	if err != nil {
		return Outcome{Status: StatusUnavailable, Message: fmt.Sprintf("marshal authorize request: %v", err)}
	}

	return c.post(ctx, c.baseURL+"/payments/authorize", tenantID, bytes.NewReader(body))
}

// Cancel voids a previous authorization for an order. Used as the saga's
// compensating action; callers treat any non-authorized outcome as
// best-effort and log it.
func (c *Client) Cancel(ctx context.Context, tenantID, orderID string) Outcome {
	return c.post(ctx, c.baseURL+"/payments/cancel/"+orderID, tenantID, http.NoBody)
}

func (c *Client) post(ctx context.Context, url, tenantID string, body io.Reader) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Outcome{Status: StatusUnavailable, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "payment service unreachable",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return Outcome{Status: StatusUnavailable, Message: "payment service unreachable"}
	}
	defer resp.Body.Close()

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// A malformed reply is indistinguishable from a broken provider.
		return Outcome{Status: StatusUnavailable, Message: fmt.Sprintf("decode payment response: %v", err)}
	}

	if out.Status != StatusAuthorized {
		// Normalize provider refusals: anything the provider answers that is
		// not an authorization is an explicit decline.
		if out.Status == "" {
			out.Status = StatusFailed
		}
		if resp.StatusCode >= 400 {
			out.Status = StatusFailed
		}
	}

	return out
}
