package metlink

import "fmt"

// TransportError reports a network failure, timeout, or non-2xx response
// from the Metlink API. Resource names the logical endpoint that failed.
type TransportError struct {
	Resource string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("metlink: %s returned HTTP %d", e.Resource, e.Status)
	}
	return fmt.Sprintf("metlink: %s request failed: %v", e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedDataError reports a payload whose shape does not match any
// form the API is known to emit.
type MalformedDataError struct {
	Resource string
	Detail   string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("metlink: %s payload malformed: %s", e.Resource, e.Detail)
}
