package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyModelOutput signals that a required function call or text content
// was absent from a completion. The run aborts; no artifact is produced.
var ErrEmptyModelOutput = errors.New("pipeline: empty model output")

// ErrPipelineInput signals malformed upstream stage output, e.g. a requested
// library component name that is not in the catalog. Treated as a
// programmer/config error, not user-recoverable.
var ErrPipelineInput = errors.New("pipeline: bad stage input")

func inputErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPipelineInput, fmt.Sprintf(format, args...))
}
