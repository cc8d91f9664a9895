package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderSubmissionDefaults(t *testing.T) {
	sub := NewOrderSubmission(map[Field]string{
		FieldCustomerName: "  Ann  ",
		FieldToken:        " token-value ",
	})

	assert.Equal(t, "Ann", sub.CustomerName)
	assert.Equal(t, "token-value", sub.DiscordToken)
	assert.Equal(t, DefaultLogLevel, sub.LogLevel)
	assert.Equal(t, DefaultBotStatus, sub.BotStatus)
	assert.NotEmpty(t, sub.Reference)
	assert.WithinDuration(t, time.Now().UTC(), sub.Timestamp, time.Minute)
}

func TestNewOrderSubmissionKeepsExplicitChoices(t *testing.T) {
	sub := NewOrderSubmission(map[Field]string{
		FieldLogLevel:  "DEBUG",
		FieldBotStatus: "Guarding the realm",
	})

	assert.Equal(t, "DEBUG", sub.LogLevel)
	assert.Equal(t, "Guarding the realm", sub.BotStatus)
}

func TestNewOrderSubmissionNormalizesUnknownLogLevel(t *testing.T) {
	sub := NewOrderSubmission(map[Field]string{FieldLogLevel: "VERBOSE"})
	assert.Equal(t, DefaultLogLevel, sub.LogLevel)
}

func TestIsValidLogLevel(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"} {
		assert.True(t, IsValidLogLevel(level), level)
	}
	assert.False(t, IsValidLogLevel("info"), "levels are case sensitive")
	assert.False(t, IsValidLogLevel(""))
	assert.False(t, IsValidLogLevel("TRACE"))
}

func TestOrderRequestFieldValues(t *testing.T) {
	req := &OrderRequest{
		CustomerName:    "Ann",
		CustomerEmail:   "a@b.co",
		DiscordClientID: "42",
	}
	values := req.FieldValues()

	assert.Equal(t, "Ann", values[FieldCustomerName])
	assert.Equal(t, "a@b.co", values[FieldCustomerEmail])
	assert.Equal(t, "42", values[FieldClientID])
	assert.Len(t, values, 9, "every form field has an entry")
}

func TestSubmissionReferencesAreUnique(t *testing.T) {
	a := NewOrderSubmission(nil)
	b := NewOrderSubmission(nil)
	assert.NotEqual(t, a.Reference, b.Reference)
}
