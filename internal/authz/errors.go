package authz

import "github.com/advista/advista/internal/shared"

// DeniedError carries a deny decision through service layers. It unwraps to
// shared.ErrForbidden (or shared.ErrUnavailable for fail-closed store
// failures) so transport code maps it without inspecting the reason. The
// reason is for logs only and must never influence how much of an operation
// proceeds.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return "authz: denied: " + string(e.Reason)
}

func (e *DeniedError) Unwrap() error {
	if e.Reason == ReasonUnavailable {
		return shared.ErrUnavailable
	}
	return shared.ErrForbidden
}
