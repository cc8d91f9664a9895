package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field identifies a control on the order form. Handlers and views address
// form state exclusively through these identifiers.
type Field string

const (
	FieldCustomerName  Field = "customer_name"
	FieldCustomerEmail Field = "customer_email"
	FieldOrderNotes    Field = "order_notes"
	FieldToken         Field = "discord_token"
	FieldClientID      Field = "discord_client_id"
	FieldClientSecret  Field = "discord_client_secret"
	FieldRedirectURI   Field = "discord_redirect_uri"
	FieldLogLevel      Field = "log_level"
	FieldBotStatus     Field = "bot_status"
)

// RequiredFields mirrors the mandatory markers on the order form. A submission
// with any of these empty is rejected before anything leaves the process.
var RequiredFields = []Field{
	FieldCustomerName,
	FieldCustomerEmail,
	FieldToken,
	FieldClientID,
	FieldClientSecret,
	FieldRedirectURI,
}

// Log levels accepted by the hosted bot's logger.
const (
	LogLevelDebug    = "DEBUG"
	LogLevelInfo     = "INFO"
	LogLevelWarning  = "WARNING"
	LogLevelError    = "ERROR"
	LogLevelCritical = "CRITICAL"
)

const (
	DefaultLogLevel  = LogLevelInfo
	DefaultBotStatus = "Watching over servers"
)

var logLevels = map[string]bool{
	LogLevelDebug:    true,
	LogLevelInfo:     true,
	LogLevelWarning:  true,
	LogLevelError:    true,
	LogLevelCritical: true,
}

// IsValidLogLevel reports whether level is one of the recognized levels.
func IsValidLogLevel(level string) bool {
	return logLevels[level]
}

// OrderRequest is sent by the shop page when a customer submits the form.
type OrderRequest struct {
	CustomerName        string `json:"customer_name"`
	CustomerEmail       string `json:"customer_email"`
	OrderNotes          string `json:"order_notes,omitempty"`
	DiscordToken        string `json:"discord_token"`
	DiscordClientID     string `json:"discord_client_id"`
	DiscordClientSecret string `json:"discord_client_secret"`
	DiscordRedirectURI  string `json:"discord_redirect_uri"`
	LogLevel            string `json:"log_level,omitempty"`
	BotStatus           string `json:"bot_status,omitempty"`
}

// FieldValues flattens the request into form-field form for the controller.
func (r *OrderRequest) FieldValues() map[Field]string {
	return map[Field]string{
		FieldCustomerName:  r.CustomerName,
		FieldCustomerEmail: r.CustomerEmail,
		FieldOrderNotes:    r.OrderNotes,
		FieldToken:         r.DiscordToken,
		FieldClientID:      r.DiscordClientID,
		FieldClientSecret:  r.DiscordClientSecret,
		FieldRedirectURI:   r.DiscordRedirectURI,
		FieldLogLevel:      r.LogLevel,
		FieldBotStatus:     r.BotStatus,
	}
}

// OrderSubmission is the transient order entity. One is built fresh for each
// submission attempt, lives for the duration of a single delivery, and is
// never stored, cached, or retried.
type OrderSubmission struct {
	Reference           string
	CustomerName        string
	CustomerEmail       string
	OrderNotes          string
	DiscordToken        string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string
	LogLevel            string
	BotStatus           string
	Timestamp           time.Time
}

// NewOrderSubmission captures the form values into a submission entity,
// trimming whitespace and applying the log-level and bot-status defaults.
// Values are read here, before any network activity, so later edits to the
// form cannot affect an in-flight delivery.
func NewOrderSubmission(values map[Field]string) *OrderSubmission {
	logLevel := strings.TrimSpace(values[FieldLogLevel])
	if !IsValidLogLevel(logLevel) {
		logLevel = DefaultLogLevel
	}
	botStatus := strings.TrimSpace(values[FieldBotStatus])
	if botStatus == "" {
		botStatus = DefaultBotStatus
	}

	return &OrderSubmission{
		Reference:           uuid.NewString(),
		CustomerName:        strings.TrimSpace(values[FieldCustomerName]),
		CustomerEmail:       strings.TrimSpace(values[FieldCustomerEmail]),
		OrderNotes:          strings.TrimSpace(values[FieldOrderNotes]),
		DiscordToken:        strings.TrimSpace(values[FieldToken]),
		DiscordClientID:     strings.TrimSpace(values[FieldClientID]),
		DiscordClientSecret: strings.TrimSpace(values[FieldClientSecret]),
		DiscordRedirectURI:  strings.TrimSpace(values[FieldRedirectURI]),
		LogLevel:            logLevel,
		BotStatus:           botStatus,
		Timestamp:           time.Now().UTC(),
	}
}

// MessageKind classifies a status message shown to the customer.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Failure kinds reported in a SubmissionResult.
const (
	FailValidation   = "validation"
	FailUnconfigured = "unconfigured"
)

// SubmissionResult is the outcome of one submission attempt.
type SubmissionResult struct {
	OK          bool   `json:"ok"`
	Reference   string `json:"reference,omitempty"`
	Message     string `json:"message"`
	FailureKind string `json:"failure_kind,omitempty"`
}
