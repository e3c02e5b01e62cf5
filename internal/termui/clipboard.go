package termui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

var errNoClipboard = errors.New("no clipboard command available")

// copyText copies text to the system clipboard. A configured command gets
// the text on stdin; otherwise the platform clipboard tool is used.
func copyText(ctx context.Context, text, command string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		if clipboard.Unsupported {
			return errNoClipboard
		}
		return clipboard.WriteAll(text)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)
	return c.Run()
}
