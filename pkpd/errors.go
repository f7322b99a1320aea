package pkpd

import "errors"

// Sentinel error kinds, wrapped via fmt.Errorf("...: %w", err) at call
// sites. Callers use errors.Is against these to classify a failure.
var (
	// ErrInvalidPatient marks a Patient with an out-of-range covariate.
	ErrInvalidPatient = errors.New("invalid patient")
	// ErrInvalidDoseEvent marks a DoseEvent with an out-of-range or negative
	// field.
	ErrInvalidDoseEvent = errors.New("invalid dose event")
	// ErrParameterDerivationFailure marks a derived PK/PD parameter that is
	// non-positive (a hard failure, not merely outside an advisory band).
	ErrParameterDerivationFailure = errors.New("parameter derivation failure")
	// ErrIntegratorDiverged marks an RK4/Euler step that produced a NaN/Inf
	// that recurred after the single-retry fallback.
	ErrIntegratorDiverged = errors.New("integrator diverged")
)
