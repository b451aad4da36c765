// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// transientMarkers are substrings of engine output that indicate a failure
// worth retrying: registry hiccups and network trouble.
var transientMarkers = []string{
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"connection reset by peer",
	"i/o timeout",
	"TLS handshake timeout",
	"net/http: request canceled while waiting for connection",
	"502 Bad Gateway",
	"503 Service Unavailable",
	"504 Gateway Time",
	"toomanyrequests",
	"unexpected EOF",
}

// IsTransientError reports whether err is a push/pull failure that may
// succeed on retry. Authentication, missing images and context cancellation
// are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Exit code 125 is a generic engine failure (daemon hiccup, storage race).
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
