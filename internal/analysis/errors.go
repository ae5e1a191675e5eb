package analysis

import (
	"errors"
	"fmt"
)

// ErrAuthExpired reports that a remote service rejected the credential.
// Whoever sees it must tear the whole session down before surfacing its own
// error, so a stale credential is never silently reused.
var ErrAuthExpired = errors.New("credential rejected by remote service")

// EntitlementError reports that the service denied access to a feature while
// the credential itself may still be valid. The session is left intact.
type EntitlementError struct {
	Detail string
}

func (e *EntitlementError) Error() string {
	if e.Detail == "" {
		return "access denied for this feature"
	}
	return e.Detail
}

// TransportError reports a network failure or an unrecognized non-2xx
// response. Scoped strictly to the triggering artifact.
type TransportError struct {
	Status int
	Detail string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Detail)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Detail)
}

// FormatError reports a 2xx response missing required fields.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed service response: %s", e.Detail)
}

// FailureDetail extracts the human-readable detail stored in a Failure
// artifact for an error from this package.
func FailureDetail(err error) string {
	var entitlement *EntitlementError
	if errors.As(err, &entitlement) {
		return entitlement.Error()
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Detail
	}
	var format *FormatError
	if errors.As(err, &format) {
		return format.Error()
	}
	return err.Error()
}
