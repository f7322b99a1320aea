package protocol

import "errors"

// ErrOptimizerNoFeasibleRate marks a grid search that never found a
// candidate with a positive overall score. Optimize still returns the
// best-effort candidate found alongside this error, rather than an empty
// Result, so a caller can inspect what the search actually produced.
var ErrOptimizerNoFeasibleRate = errors.New("optimizer: no feasible rate found")

// ErrInvalidSettings marks a Settings value with an out-of-range field.
var ErrInvalidSettings = errors.New("invalid protocol settings")
