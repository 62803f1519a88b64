package llama

import (
	"errors"
	"fmt"
)

// ErrMissingSeries is returned when a payload has no series for the requested chain or category.
var ErrMissingSeries = errors.New("series not found in payload")

// StatusError is returned for upstream responses other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
}
