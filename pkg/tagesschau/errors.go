package tagesschau

import (
	"errors"
	"fmt"
)

// Error kinds returned by the client. Match them with errors.Is.
var (
	ErrInvalidDate     = errors.New("invalid calendar date")
	ErrURLConstruction = errors.New("build request url")
	ErrRequestFailed   = errors.New("fetching articles failed")
	ErrBodyRead        = errors.New("read response body")
	ErrInvalidResponse = errors.New("invalid response")
	ErrDeserialization = errors.New("deserialize response")
	ErrConversion      = errors.New("tried to extract wrong content type")
	ErrClock           = errors.New("unable to determine current date")
)

// InvalidResponseError reports a non-200 status from the news endpoint.
type InvalidResponseError struct {
	StatusCode int
	URL        string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response: HTTP status %d for %s", e.StatusCode, e.URL)
}

// Is lets errors.Is(err, ErrInvalidResponse) match any status.
func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrInvalidResponse
}
