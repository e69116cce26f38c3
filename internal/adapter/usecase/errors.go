package usecase

import "fmt"

// ValidationError reports a malformed request rejected before any storage
// access. The HTTP adapter maps it to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
