package ordering

import (
	"fmt"

	"github.com/fortest/myorders/internal/store"
)

var ErrNotFound = store.ErrNotFound

// ValidationError reports the first reference that did not pass its existence
// check. An unreachable dependency produces the same error as a missing one.
type ValidationError struct {
	Entity string
	ID     uint
}

func (e *ValidationError) Error() string {
	if e.Entity == "customer" {
		return "customer not found"
	}
	return fmt.Sprintf("%s not found: %d", e.Entity, e.ID)
}
