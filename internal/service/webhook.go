package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hugsndnugs/Sentinel-Shop/internal/limiter"
	"github.com/hugsndnugs/Sentinel-Shop/internal/model"
)

// FailureKind is the structured classification of a failed delivery,
// produced by the HTTP layer instead of sniffing error text.
type FailureKind string

const (
	FailureUnconfigured FailureKind = "unconfigured"
	FailureNetwork      FailureKind = "network"
	FailureNotFound     FailureKind = "not_found"
	FailureAuth         FailureKind = "auth"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureServer       FailureKind = "server"
	FailureGeneric      FailureKind = "generic"
)

// maxDiagnosticLen bounds how much of the endpoint's response body is carried
// in a DeliveryError.
const maxDiagnosticLen = 100

// DeliveryError describes why a webhook delivery failed.
type DeliveryError struct {
	Kind       FailureKind
	StatusCode int
	Body       string // endpoint diagnostic, at most maxDiagnosticLen chars
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook delivery failed (%s): %v", e.Kind, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook delivery failed (%s): HTTP %d: %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("webhook delivery failed (%s)", e.Kind)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// UserMessage is the customer-facing text for this failure.
func (e *DeliveryError) UserMessage() string {
	switch e.Kind {
	case FailureUnconfigured:
		return "Webhook URL is not configured. Please contact the site administrator."
	case FailureNetwork:
		return "Network error: could not reach the order endpoint. Check your connection and try again."
	case FailureNotFound:
		return "Order endpoint not found (404). Please contact support."
	case FailureAuth:
		return "The order endpoint rejected the request (authentication failed). Please contact support."
	case FailureRateLimited:
		return "Too many orders right now. Please wait a moment and try again."
	case FailureServer:
		return "The order endpoint hit an internal error (500). Please try again later."
	default:
		if e.Body != "" {
			return fmt.Sprintf("Order submission failed (HTTP %d): %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("Order submission failed (HTTP %d). Please try again.", e.StatusCode)
	}
}

// TokenChecker optionally verifies a submitted bot token against the Discord
// API. Implementations must be cheap to skip: a nil checker means disabled.
type TokenChecker interface {
	Check(token string) (string, error)
}

// WebhookService delivers order notifications to the operator-configured
// webhook endpoint. One attempt per submission; the customer is the retry
// mechanism.
type WebhookService struct {
	url        string
	redactBulk bool
	client     *http.Client
	limiter    *limiter.Limiter
	probe      TokenChecker
}

func NewWebhookService(webhookURL string, redactBulk bool, lim *limiter.Limiter, probe TokenChecker) *WebhookService {
	return &WebhookService{
		url:        webhookURL,
		redactBulk: redactBulk,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    lim,
		probe:      probe,
	}
}

// Configured reports whether an endpoint URL is set. Placeholder values are
// normalized away at config load.
func (s *WebhookService) Configured() bool {
	return s.url != ""
}

// Send delivers one order notification. The returned error, when non-nil, is
// always a *DeliveryError.
func (s *WebhookService) Send(ctx context.Context, sub *model.OrderSubmission) error {
	if !s.Configured() {
		return &DeliveryError{Kind: FailureUnconfigured}
	}

	tokenCheck := ""
	if s.probe != nil {
		tag, err := s.probe.Check(sub.DiscordToken)
		if err != nil {
			tokenCheck = "⚠️ could not be verified: " + err.Error()
		} else if tag != "" {
			tokenCheck = "✅ verified as " + tag
		}
	}

	payload := buildPayload(sub, s.redactBulk, tokenCheck)
	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Kind: FailureGeneric, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, s.url); err != nil {
			if errors.Is(err, limiter.ErrQueueFull) {
				return &DeliveryError{Kind: FailureRateLimited, Err: err}
			}
			return &DeliveryError{Kind: FailureNetwork, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Kind: FailureGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[webhook] send error for order %s: %v", sub.Reference, err)
		return &DeliveryError{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if s.limiter != nil {
			s.limiter.RecordSent()
		}
		log.Printf("[webhook] order %s delivered (HTTP %d)", sub.Reference, resp.StatusCode)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	diag := string(raw)
	if len(diag) > maxDiagnosticLen {
		diag = diag[:maxDiagnosticLen]
	}
	log.Printf("[webhook] HTTP %d for order %s: %s", resp.StatusCode, sub.Reference, diag)

	derr := &DeliveryError{Kind: classifyStatus(resp.StatusCode), StatusCode: resp.StatusCode, Body: diag}
	if resp.StatusCode == http.StatusTooManyRequests && s.limiter != nil {
		s.limiter.Penalize(s.url, retryAfter(raw))
	}
	return derr
}

func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusNotFound:
		return FailureNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusTooManyRequests:
		return FailureRateLimited
	case status >= 500:
		return FailureServer
	default:
		return FailureGeneric
	}
}

// retryAfter extracts the backoff hint from a 429: Discord puts retry_after
// (seconds, possibly fractional) in the JSON body.
func retryAfter(body []byte) time.Duration {
	var rl struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
		return time.Duration(rl.RetryAfter * float64(time.Second))
	}
	return time.Second
}
