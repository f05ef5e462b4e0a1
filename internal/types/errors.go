package types

import "fmt"

// The engine surfaces five recoverable error kinds. All are plain values:
// callers detect them with errors.As, the engine never retries internally,
// and the first error encountered is the one returned.

// PreprocessingError reports bad or missing column data.
type PreprocessingError struct {
	Column string
	Reason string
}

func (e *PreprocessingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("preprocessing: %s", e.Reason)
	}
	return fmt.Sprintf("preprocessing column %q: %s", e.Column, e.Reason)
}

// ClusteringError reports degenerate or insufficient clustering input.
type ClusteringError struct {
	Reason string
}

func (e *ClusteringError) Error() string {
	return fmt.Sprintf("clustering: %s", e.Reason)
}

// AlignmentError reports mismatched inputs to the temporal merger.
type AlignmentError struct {
	PrevLen int
	CurrLen int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("merge alignment: previous has %d labels, current has %d", e.PrevLen, e.CurrLen)
}

// InsufficientDataError reports that the classifier cannot be trained.
type InsufficientDataError struct {
	Classes int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("classifier training needs at least 2 distinct categories, got %d", e.Classes)
}

// StateLoadError reports corrupt or incompatible persisted session state.
// It wraps the underlying decode error for errors.Is/As chains.
type StateLoadError struct {
	Err error
}

func (e *StateLoadError) Error() string {
	return fmt.Sprintf("state load: %v", e.Err)
}

func (e *StateLoadError) Unwrap() error { return e.Err }
