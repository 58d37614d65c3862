package derror

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not logged in or login expired")
	ErrSessionExpired   = errors.New("login expired, please log in again")
	ErrNoResponseBody   = errors.New("response has no readable body")
)

// StatusError reports a non-OK HTTP response that survived the
// refresh-and-retry policy.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Code)
}
