package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledProbeIsNil(t *testing.T) {
	assert.Nil(t, NewTokenProbe(false))
	assert.NotNil(t, NewTokenProbe(true))
}

func TestNilProbeCheckIsNoop(t *testing.T) {
	var p *TokenProbe
	tag, err := p.Check("whatever")
	assert.NoError(t, err)
	assert.Empty(t, tag)
}
