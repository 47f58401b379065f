// Package remote implements the paginated listing client for the drive API.
package remote

import (
	"errors"
	"fmt"
)

// RemoteError is a non-success response from the drive API. The message is
// server-supplied when the error envelope could be decoded.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("remote error: HTTP %d: %s", e.Status, e.Message)
}

// ErrAuthExpired indicates a 401 while a bearer token was in use. It is
// distinct from an anonymous-key 401 (a plain RemoteError) because the
// session can recover by re-authenticating without losing state.
var ErrAuthExpired = errors.New("authenticated session expired")

// IsAuthExpired reports whether err is an expired-session 401.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// StatusOf returns the HTTP status behind err, or 0 if err is not a
// RemoteError.
func StatusOf(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
