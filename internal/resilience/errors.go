package resilience

import "errors"

var (
	ErrIncidentNotFound = errors.New("no open incident for trigger and subject")
	ErrAlertNotFound    = errors.New("alert not found")
)
