package service

import (
	"fmt"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// Capability names a privilege required by an operation.
type Capability string

// CapabilityAdmin is required by every admin-only operation.
const CapabilityAdmin Capability = "admin"

// Authorize returns nil if caller holds the required capability and an
// ErrForbidden *Error otherwise.
// Admin-only operations call it before touching any store.
func Authorize(caller domain.Caller, required Capability) error {
	switch required {
	case CapabilityAdmin:
		if caller.IsAdmin() {
			return nil
		}
	}
	return newError(ErrForbidden, fmt.Sprintf("Access denied: %s role required", required))
}
