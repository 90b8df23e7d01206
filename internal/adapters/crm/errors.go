package crm

import "errors"

// Sentinel kinds for CRM client errors.
var (
	ErrUnavailable = errors.New("case-management system unavailable")
	ErrBadPayload  = errors.New("unexpected case-management payload")
)
