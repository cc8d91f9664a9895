package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hugsndnugs/Sentinel-Shop/internal/model"
)

const (
	minTokenLength      = 50
	successDismissDelay = 5 * time.Second

	msgTokenInvalid    = "Discord token appears to be invalid"
	msgClientIDNumeric = "Client ID should be numeric"
	msgRedirectURI     = "Redirect URI must be a valid URL"
	msgMissingFields   = "Please fill in all required fields"
	msgSuccess         = "Order submitted successfully! We'll set up your bot and be in touch shortly."
)

var (
	emailRe    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	clientIDRe = regexp.MustCompile(`^\d+$`)
)

// View is the thin adapter between the controller and whatever renders the
// order form. The controller owns submission semantics; the view owns pixels.
type View interface {
	// FieldValues returns the form's current values keyed by field identifier.
	FieldValues() map[model.Field]string
	// SetFieldError marks a field with an inline error indicator.
	SetFieldError(field model.Field)
	// ClearFieldError removes a field's error indicator.
	ClearFieldError(field model.Field)
	// ClearFields resets every field value and error indicator.
	ClearFields()
	// ShowMessage displays a status message to the customer.
	ShowMessage(text string, kind model.MessageKind)
	// ClearMessage removes the status message.
	ClearMessage()
	// SetSubmitEnabled toggles the submit control.
	SetSubmitEnabled(enabled bool)
}

// Sender delivers a built submission to the configured endpoint.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, sub *model.OrderSubmission) error
}

// State of a submission in flight.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

// SubmissionController owns the full lifecycle of one form submission:
// validation, payload shaping, dispatch, and outcome reporting. It holds no
// process-wide state; the endpoint configuration arrives through the Sender.
type SubmissionController struct {
	view   View
	sender Sender
	state  State

	// dismissDelay is how long a success message stays up. Tests shorten it.
	dismissDelay time.Duration
}

func NewSubmissionController(view View, sender Sender) *SubmissionController {
	return &SubmissionController{
		view:         view,
		sender:       sender,
		state:        StateIdle,
		dismissDelay: successDismissDelay,
	}
}

func (c *SubmissionController) State() State { return c.state }

// Validate runs the field checks against the form's current values, marking
// offending fields through the view. It reports whether submission may
// proceed.
func (c *SubmissionController) Validate() bool {
	c.state = StateValidating
	defer func() { c.state = StateIdle }()
	return c.validate(c.view.FieldValues())
}

// validate performs the checks in their fixed order: required fields first
// (all of them, so every empty field gets marked), then the email shape, then
// the three targeted checks. The targeted checks bail out on the first
// failure without evaluating the later ones.
func (c *SubmissionController) validate(values map[model.Field]string) bool {
	ok := true
	for _, f := range model.RequiredFields {
		if strings.TrimSpace(values[f]) == "" {
			c.view.SetFieldError(f)
			ok = false
		} else {
			c.view.ClearFieldError(f)
		}
	}

	if email := strings.TrimSpace(values[model.FieldCustomerEmail]); email != "" && !emailRe.MatchString(email) {
		c.view.SetFieldError(model.FieldCustomerEmail)
		ok = false
	}

	if token := strings.TrimSpace(values[model.FieldToken]); token != "" && len(token) < minTokenLength {
		c.view.SetFieldError(model.FieldToken)
		c.view.ShowMessage(msgTokenInvalid, model.MessageError)
		return false
	}

	if id := strings.TrimSpace(values[model.FieldClientID]); id != "" && !clientIDRe.MatchString(id) {
		c.view.SetFieldError(model.FieldClientID)
		c.view.ShowMessage(msgClientIDNumeric, model.MessageError)
		return false
	}

	if uri := strings.TrimSpace(values[model.FieldRedirectURI]); uri != "" && !isAbsoluteURL(uri) {
		c.view.SetFieldError(model.FieldRedirectURI)
		c.view.ShowMessage(msgRedirectURI, model.MessageError)
		return false
	}

	return ok
}

// HandleSubmit runs one complete submission attempt. Field values are read
// once, up front, so edits made while the delivery is in flight cannot change
// what was sent. Exactly one delivery attempt is made; there is no retry.
func (c *SubmissionController) HandleSubmit(ctx context.Context) *model.SubmissionResult {
	values := c.view.FieldValues()

	c.state = StateValidating
	if !c.validate(values) {
		c.state = StateIdle
		return &model.SubmissionResult{
			OK:          false,
			Message:     msgMissingFields,
			FailureKind: model.FailValidation,
		}
	}

	if !c.sender.Configured() {
		c.state = StateIdle
		msg := (&DeliveryError{Kind: FailureUnconfigured}).UserMessage()
		c.view.ShowMessage(msg, model.MessageError)
		return &model.SubmissionResult{
			OK:          false,
			Message:     msg,
			FailureKind: model.FailUnconfigured,
		}
	}

	sub := model.NewOrderSubmission(values)

	c.state = StateSubmitting
	c.view.SetSubmitEnabled(false)
	defer func() {
		c.view.SetSubmitEnabled(true)
		c.state = StateIdle
	}()

	if err := c.sender.Send(ctx, sub); err != nil {
		msg, kind := describeFailure(err)
		c.view.ShowMessage(msg, model.MessageError)
		return &model.SubmissionResult{
			OK:          false,
			Reference:   sub.Reference,
			Message:     msg,
			FailureKind: kind,
		}
	}

	c.view.ClearFields()
	c.view.ShowMessage(msgSuccess, model.MessageSuccess)
	time.AfterFunc(c.dismissDelay, c.view.ClearMessage)

	return &model.SubmissionResult{
		OK:        true,
		Reference: sub.Reference,
		Message:   msgSuccess,
	}
}

func describeFailure(err error) (msg, kind string) {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr.UserMessage(), string(derr.Kind)
	}
	return "Order submission failed: " + err.Error(), string(FailureGeneric)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}
