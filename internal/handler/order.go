package handler

import (
	"sort"
	"sync/atomic"

	"github.com/hugsndnugs/Sentinel-Shop/internal/model"
	"github.com/hugsndnugs/Sentinel-Shop/internal/service"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler exposes the order form over HTTP. Each request gets its own
// controller and a request-scoped view, so nothing submission-related
// outlives the request.
type OrderHandler struct {
	webhooks *service.WebhookService

	accepted uint64
	rejected uint64
	failed   uint64
}

func NewOrderHandler(webhooks *service.WebhookService) *OrderHandler {
	return &OrderHandler{webhooks: webhooks}
}

// Submit receives a completed order form, validates it, and forwards it to
// the configured webhook.
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	var req model.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	view := newFormView(&req)
	ctrl := service.NewSubmissionController(view, h.webhooks)
	result := ctrl.HandleSubmit(c.Context())

	if result.OK {
		atomic.AddUint64(&h.accepted, 1)
		return c.Status(201).JSON(view.response(result))
	}

	switch result.FailureKind {
	case model.FailValidation:
		atomic.AddUint64(&h.rejected, 1)
		return c.Status(400).JSON(view.response(result))
	case model.FailUnconfigured:
		atomic.AddUint64(&h.failed, 1)
		return c.Status(503).JSON(view.response(result))
	case string(service.FailureRateLimited):
		atomic.AddUint64(&h.failed, 1)
		return c.Status(429).JSON(view.response(result))
	default:
		atomic.AddUint64(&h.failed, 1)
		return c.Status(502).JSON(view.response(result))
	}
}

// Validate dry-runs the field checks without sending anything.
func (h *OrderHandler) Validate(c *fiber.Ctx) error {
	var req model.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	view := newFormView(&req)
	ctrl := service.NewSubmissionController(view, h.webhooks)
	if ctrl.Validate() {
		return c.JSON(fiber.Map{"valid": true})
	}

	resp := fiber.Map{"valid": false, "field_errors": view.fieldErrorList()}
	if view.message != "" {
		resp["message"] = view.message
	}
	return c.Status(400).JSON(resp)
}

// Counters returns accepted/rejected/failed submission totals.
func (h *OrderHandler) Counters() (accepted, rejected, failed uint64) {
	return atomic.LoadUint64(&h.accepted), atomic.LoadUint64(&h.rejected), atomic.LoadUint64(&h.failed)
}

// formView is the request-scoped view adapter. It captures what a rendered
// page would show — inline field errors, the status message, the submit
// control state — and plays it back in the HTTP response.
type formView struct {
	values        map[model.Field]string
	fieldErrors   map[model.Field]bool
	message       string
	messageKind   model.MessageKind
	submitEnabled bool
}

func newFormView(req *model.OrderRequest) *formView {
	return &formView{
		values:        req.FieldValues(),
		fieldErrors:   make(map[model.Field]bool),
		submitEnabled: true,
	}
}

func (v *formView) FieldValues() map[model.Field]string {
	out := make(map[model.Field]string, len(v.values))
	for f, val := range v.values {
		out[f] = val
	}
	return out
}

func (v *formView) SetFieldError(field model.Field)   { v.fieldErrors[field] = true }
func (v *formView) ClearFieldError(field model.Field) { delete(v.fieldErrors, field) }

func (v *formView) ClearFields() {
	for f := range v.values {
		v.values[f] = ""
	}
	v.fieldErrors = make(map[model.Field]bool)
}

func (v *formView) ShowMessage(text string, kind model.MessageKind) {
	v.message = text
	v.messageKind = kind
}

func (v *formView) ClearMessage() {
	v.message = ""
	v.messageKind = ""
}

func (v *formView) SetSubmitEnabled(enabled bool) { v.submitEnabled = enabled }

func (v *formView) fieldErrorList() []string {
	fields := make([]string, 0, len(v.fieldErrors))
	for f := range v.fieldErrors {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	return fields
}

// response merges the controller's result with what the view captured.
func (v *formView) response(result *model.SubmissionResult) fiber.Map {
	message := result.Message
	if v.message != "" {
		message = v.message
	}
	resp := fiber.Map{
		"ok":      result.OK,
		"message": message,
	}
	if result.Reference != "" {
		resp["reference"] = result.Reference
	}
	if result.FailureKind != "" {
		resp["failure_kind"] = result.FailureKind
	}
	if len(v.fieldErrors) > 0 {
		resp["field_errors"] = v.fieldErrorList()
	}
	return resp
}
