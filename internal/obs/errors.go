package obs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when no session is established
	ErrNotConnected = errors.New("not connected to OBS")

	// ErrTargetUnavailable is returned when the configured scene or source
	// cannot currently be resolved
	ErrTargetUnavailable = errors.New("scene item unavailable")

	// ErrAuthFailed is returned when OBS rejects the password
	ErrAuthFailed = errors.New("OBS authentication failed")
)

// RequestError is a request OBS answered with a failure status
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("%s failed with code %d: %s", e.RequestType, e.Code, e.Comment)
	}
	return fmt.Sprintf("%s failed with code %d", e.RequestType, e.Code)
}

// Is lets errors.Is(err, ErrTargetUnavailable) match "resource not found"
func (e *RequestError) Is(target error) bool {
	return target == ErrTargetUnavailable && e.Code == StatusResourceNotFound
}
