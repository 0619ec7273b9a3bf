package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "regtrack version dev")
}

func TestVersionCmd_SetVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Contains(t, out, "regtrack version 1.2.3")
}
