package domain

import "errors"

// Failure taxonomy shared by every stage. Stages wrap these sentinels so the
// orchestrator and the trigger surfaces can classify without string matching.
var (
	// ErrUpstream covers any third-party API failure: network, auth, quota,
	// or an unusable response body.
	ErrUpstream = errors.New("upstream provider failure")

	// ErrEmptyInput means an upstream call succeeded but returned nothing a
	// downstream stage could use.
	ErrEmptyInput = errors.New("empty input")

	// ErrInsufficientAssets means the visual search returned no usable assets.
	ErrInsufficientAssets = errors.New("insufficient visual assets")

	// ErrAssembly covers local encoding and compositing failures.
	ErrAssembly = errors.New("video assembly failure")

	// ErrResource covers disk or memory exhaustion during a render.
	ErrResource = errors.New("resource exhausted")
)

// StageError records which pipeline stage failed and why. It unwraps to the
// stage's underlying error so errors.Is still reaches the sentinels above.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + " stage: " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the stage name from err, or "" if err did not come
// out of a pipeline stage.
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
