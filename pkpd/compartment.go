package pkpd

import (
	"fmt"
	"math"
)

// CompartmentState holds the amount of drug in the central and two
// peripheral compartments (mg) plus the effect-site concentration (µg/mL).
// Every field is >= 0 after every integration step; negative undershoot is
// clamped to zero.
type CompartmentState struct {
	A1, A2, A3 float64 // mg
	Ce         float64 // µg/mL
}

// IsFinite reports whether every field of s is a finite number.
func (s CompartmentState) IsFinite() bool {
	return isFiniteAll(s.A1, s.A2, s.A3, s.Ce)
}

func isFiniteAll(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// clampNonNegative zeroes any negative field, leaving NaN/Inf untouched
// (comparisons against NaN are always false, so this never masks a
// divergence - IsFinite must be checked separately).
func clampNonNegative(s CompartmentState) CompartmentState {
	if s.A1 < 0 {
		s.A1 = 0
	}
	if s.A2 < 0 {
		s.A2 = 0
	}
	if s.A3 < 0 {
		s.A3 = 0
	}
	if s.Ce < 0 {
		s.Ce = 0
	}
	return s
}

func addScaled(s CompartmentState, h float64, d CompartmentState) CompartmentState {
	return CompartmentState{
		A1: s.A1 + h*d.A1,
		A2: s.A2 + h*d.A2,
		A3: s.A3 + h*d.A3,
		Ce: s.Ce + h*d.Ce,
	}
}

// derivative evaluates the right-hand side of the three-compartment plus
// effect-site ODE system at state s under a piecewise-constant infusion
// rate R (mg/min).
func derivative(pk PKParams, s CompartmentState, rateMgPerMin float64) CompartmentState {
	da1 := rateMgPerMin - (pk.K10+pk.K12+pk.K13)*s.A1 + pk.K21*s.A2 + pk.K31*s.A3
	da2 := pk.K12*s.A1 - pk.K21*s.A2
	da3 := pk.K13*s.A1 - pk.K31*s.A3
	dce := pk.Ke0 * (s.A1/pk.V1 - s.Ce)
	return CompartmentState{A1: da1, A2: da2, A3: da3, Ce: dce}
}

// StepRK4 advances state by dt minutes under a constant rate using classical
// 4th-order Runge-Kutta with equal half-step evaluations. Bolus events are
// NOT applied here - they are instantaneous jumps to A1 applied by the
// caller before or between steps, never smeared across a step.
func StepRK4(pk PKParams, s CompartmentState, rateMgPerMin, dt float64) CompartmentState {
	k1 := derivative(pk, s, rateMgPerMin)
	k2 := derivative(pk, addScaled(s, dt/2, k1), rateMgPerMin)
	k3 := derivative(pk, addScaled(s, dt/2, k2), rateMgPerMin)
	k4 := derivative(pk, addScaled(s, dt, k3), rateMgPerMin)

	next := CompartmentState{
		A1: s.A1 + dt/6*(k1.A1+2*k2.A1+2*k3.A1+k4.A1),
		A2: s.A2 + dt/6*(k1.A2+2*k2.A2+2*k3.A2+k4.A2),
		A3: s.A3 + dt/6*(k1.A3+2*k2.A3+2*k3.A3+k4.A3),
		Ce: s.Ce + dt/6*(k1.Ce+2*k2.Ce+2*k3.Ce+k4.Ce),
	}
	return clampNonNegative(next)
}

// StepEuler advances state by dt minutes under a constant rate using
// first-order forward Euler. It is the documented fallback used when RK4
// produces a NaN/Inf, or when explicitly selected; larger dt noticeably
// biases the Ce peak time relative to RK4.
func StepEuler(pk PKParams, s CompartmentState, rateMgPerMin, dt float64) CompartmentState {
	d := derivative(pk, s, rateMgPerMin)
	return clampNonNegative(addScaled(s, dt, d))
}

// Method tags the integration scheme used for an entire run. It is selected
// once per run and never hot-swapped mid-run - doing so would invalidate
// determinism.
type Method int

const (
	MethodRK4 Method = iota
	MethodEuler
)

func (m Method) String() string {
	if m == MethodEuler {
		return "euler"
	}
	return "rk4"
}

// Integrator wraps a PKParams and Method with the NaN/Inf recovery policy:
// a diverging RK4 step is retried once with Euler; if that
// also diverges the state is reset to a safe value (A1=last bolus, all else
// zero) and a fallback is recorded; a second divergence in the same run is
// fatal.
type Integrator struct {
	PK          PKParams
	Method      Method
	lastBolusA1 float64
	fallbacks   int
}

// NewIntegrator constructs an Integrator for a fixed PK parameter set and
// integration method.
func NewIntegrator(pk PKParams, method Method) *Integrator {
	return &Integrator{PK: pk, Method: method}
}

// RecordBolus notes the central-compartment amount immediately after a bolus
// is applied, so that a subsequent divergence can reset to a safe state
// rather than to zero.
func (in *Integrator) RecordBolus(a1AfterBolus float64) {
	in.lastBolusA1 = a1AfterBolus
}

// FallbackCount returns the number of NaN/Inf recoveries performed so far in
// this Integrator's lifetime.
func (in *Integrator) FallbackCount() int { return in.fallbacks }

// Advance steps state forward by dt minutes under rateMgPerMin, applying the
// configured Method and the NaN/Inf recovery policy. fellBack reports
// whether this step triggered a reset-to-safe-state fallback.
func (in *Integrator) Advance(state CompartmentState, rateMgPerMin, dt float64) (next CompartmentState, fellBack bool, err error) {
	step := StepRK4
	if in.Method == MethodEuler {
		step = StepEuler
	}

	next = step(in.PK, state, rateMgPerMin, dt)
	if !next.IsFinite() && in.Method == MethodRK4 {
		// Single Euler retry for this step.
		next = StepEuler(in.PK, state, rateMgPerMin, dt)
	}
	if next.IsFinite() {
		return next, false, nil
	}

	in.fallbacks++
	if in.fallbacks > 1 {
		return state, true, fmt.Errorf("%w: second divergence in this run", ErrIntegratorDiverged)
	}
	safe := CompartmentState{A1: in.lastBolusA1}
	return safe, true, nil
}
