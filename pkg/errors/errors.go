package errors

import (
	"fmt"
)

var (
	ErrValidation         = fmt.Errorf("spec validation failed")
	ErrBackendUnavailable = fmt.Errorf("backend unavailable")
	ErrRejected           = fmt.Errorf("backend rejected spec")
	ErrTimeout            = fmt.Errorf("await deadline exceeded")
	ErrNotFound           = fmt.Errorf("not found")
	ErrTerminalState      = fmt.Errorf("job in terminal state")
	ErrETagMismatch       = fmt.Errorf("etag mismatch")
	ErrMaxExceeded        = fmt.Errorf("max length exceeded")
	ErrInvalidArg         = fmt.Errorf("invalid arg")
)
