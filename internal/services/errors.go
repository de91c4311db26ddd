package services

import (
	"context"
	"errors"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

// remoteError builds the gateway failure for code, flagging timeouts so the
// boundary can answer 504 instead of 502.
func remoteError(code string, status int, detail string, err error) *models.Error {
	e := models.NewRemoteError(code, status, detail, err)
	e.Timeout = isTimeout(err)
	if e.Timeout {
		e.Detail = strings.TrimSpace(detail + " (timed out)")
	}
	return e
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

const previewLimit = 500

// preview shortens a provider body for error details without splitting a rune.
func preview(b []byte) string {
	if len(b) <= previewLimit {
		return string(b)
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}
