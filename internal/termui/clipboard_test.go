package termui

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyText_ConfiguredCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	assert.NoError(t, copyText(context.Background(), "hello", "true --ignored"))
}

func TestCopyText_CommandFails(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	assert.Error(t, copyText(context.Background(), "hello", "false"))
}
