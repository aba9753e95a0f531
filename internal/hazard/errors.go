package hazard

import "fmt"

// NetworkError is returned when the API could not be reached or answered
// with a non-success status.
type NetworkError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is returned when a successful response body is not valid JSON
// of the expected shape.
type DecodeError struct {
	Err error
	URL string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
