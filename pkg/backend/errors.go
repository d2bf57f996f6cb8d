package backend

import "fmt"

// RemoteQueryError is returned whenever a query against the backend fails:
// a non-success status, or a transport failure before any status arrived
// (StatusCode 0, Err carries the cause). The adapter layer propagates it to
// callers unchanged; no layer below the UI retries or swallows it.
type RemoteQueryError struct {
	Op         string
	Table      string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteQueryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("backend %s on %q failed: %s", e.Op, e.Table, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("backend %s on %q failed: %s (status %d)", e.Op, e.Table, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend %s on %q failed: status %d", e.Op, e.Table, e.StatusCode)
}

// Unwrap exposes the transport cause so callers can still match context
// cancellation and deadline errors.
func (e *RemoteQueryError) Unwrap() error { return e.Err }

// PreconditionError reports an invalid request that was rejected before any
// network call was made.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}
