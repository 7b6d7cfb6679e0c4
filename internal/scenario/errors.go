package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownScenario is returned when activating a static scenario that was never registered.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrDuplicateScenario is returned when a name is registered twice.
	ErrDuplicateScenario = errors.New("scenario already registered")

	// ErrInvalidScenario is returned for an empty name or missing transform/trigger.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// TransformError wraps a failure raised by a scenario's trigger or transform.
type TransformError struct {
	Scenario string
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("scenario %q: %v", e.Scenario, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
