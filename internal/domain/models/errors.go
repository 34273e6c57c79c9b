package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrModelInference      = errors.New("model inference failed")
	ErrAlignmentGap        = errors.New("alignment gap")
	ErrPlayerNotFound      = errors.New("player not found")
)

// InsufficientHistoryError reports an empty history or a zero-length aligned range.
type InsufficientHistoryError struct {
	PlayerID string
	Records  int
	Reason   string
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for player %q (%d records): %s", e.PlayerID, e.Records, e.Reason)
}

func (e *InsufficientHistoryError) Is(target error) bool { return target == ErrInsufficientHistory }

// SchemaMismatchError reports a record that does not fit the canonical schema.
type SchemaMismatchError struct {
	PlayerID string
	Year     int
	Field    string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("schema mismatch for player %q year %d: %s: %s", e.PlayerID, e.Year, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema mismatch for player %q: %s: %s", e.PlayerID, e.Field, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// ModelInferenceError reports a failed or malformed model call at a given step.
type ModelInferenceError struct {
	PlayerID string
	Step     int
	Year     int
	Err      error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference for player %q at step %d (year %d): %v", e.PlayerID, e.Step, e.Year, e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

func (e *ModelInferenceError) Is(target error) bool { return target == ErrModelInference }

// AlignmentGapError is advisory: sentinel rows dominate the aligned series.
type AlignmentGapError struct {
	PlayerID  string
	Filled    int
	Total     int
	Threshold float64
}

func (e *AlignmentGapError) Error() string {
	return fmt.Sprintf("player %q: %d of %d seasons unobserved (threshold %.2f), lag features are low confidence",
		e.PlayerID, e.Filled, e.Total, e.Threshold)
}

func (e *AlignmentGapError) Is(target error) bool { return target == ErrAlignmentGap }
