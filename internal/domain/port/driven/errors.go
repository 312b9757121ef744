package driven

import "fmt"

// BackendError is a non-success response from the hosted backend. Message is
// the backend-provided, user-presentable description; it may be empty.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}
