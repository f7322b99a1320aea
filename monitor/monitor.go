// Package monitor's Run implements the offline horizon-integration
// described in doc.go: instead of draining a priority queue of arbitrary
// events, it walks a fixed 0.01-min grid applying dose events as they
// come due and downsampling state to 1-minute rows.
package monitor

import (
	"fmt"
	"math"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// GridDtMin is the fixed integration step for monitoring runs - the same
// resolution the live induction engine ticks at, which is what makes
// engine agreement hold exactly rather than approximately.
const GridDtMin = 0.01

// stepsPerMinute is how many grid steps make up one output row.
const stepsPerMinute = int(1.0 / GridDtMin)

// defaultTailMin is appended after the last dose event when no explicit
// horizon is given.
const defaultTailMin = 120.0

// attachWindowMin is the window around a 1-minute sample within which a dose
// event is considered "active" and attached as the Sample's ActiveEvent.
const attachWindowMin = 0.5

// Run integrates events against patient's derived PK/PD parameters out to
// horizonMin (or, if horizonMin <= 0, to the last event's time plus
// defaultTailMin) and returns a 1-minute-resolution Result. A partial Result
// is returned alongside a non-nil error if the integrator diverges
// irrecoverably partway through.
func Run(patient pkpd.Patient, events []pkpd.DoseEvent, horizonMin float64) (Result, error) {
	deriv, err := pkpd.Derive(patient)
	if err != nil {
		return Result{}, err
	}

	var schedule pkpd.DoseSchedule
	for _, e := range events {
		if err := schedule.Add(e); err != nil {
			return Result{}, err
		}
	}
	ordered := schedule.Events()
	bolusStream, rateStream, initialA1 := schedule.Materialize()

	horizon := horizonMin
	if horizon <= 0 {
		horizon = defaultTailMin
		for _, e := range ordered {
			if e.TMinutes+defaultTailMin > horizon {
				horizon = e.TMinutes + defaultTailMin
			}
		}
	}

	nSteps := int(math.Round(horizon / GridDtMin))
	bolusAtStep := make(map[int]float64, len(bolusStream))
	for _, bp := range bolusStream {
		idx := int(math.Round(bp.TMinutes / GridDtMin))
		bolusAtStep[idx] += bp.BolusMg
	}

	integrator := pkpd.NewIntegrator(deriv.PK, pkpd.MethodRK4)
	integrator.RecordBolus(initialA1)
	state := pkpd.CompartmentState{A1: initialA1}

	result := Result{Patient: patient, IntegrationMethod: integrator.Method.String()}

	for i := 0; i <= nSteps; i++ {
		t := float64(i) * GridDtMin
		if add, ok := bolusAtStep[i]; ok {
			state.A1 += add
			integrator.RecordBolus(state.A1)
		}

		if i%stepsPerMinute == 0 {
			result.Samples = append(result.Samples, Sample{
				TMin:                t,
				Plasma:              state.A1 / deriv.PK.V1,
				Ce:                  state.Ce,
				InfusionRateMgPerHr: pkpd.RateAt(rateStream, t),
				BIS:                 deriv.PD.BIS(state.Ce),
				ActiveEvent:         nearestEvent(ordered, t),
			})
		}

		if i == nSteps {
			break
		}
		rate := pkpd.RateAt(rateStream, t) / 60.0
		next, fellBack, err := integrator.Advance(state, rate, GridDtMin)
		if err != nil {
			result.FallbackCount = integrator.FallbackCount()
			result.MaxPlasma, result.MaxCe, result.MinBIS = summarize(result.Samples)
			return result, fmt.Errorf("monitor: run diverged at t=%.2fmin: %w", t, err)
		}
		_ = fellBack
		state = next
	}

	result.FallbackCount = integrator.FallbackCount()
	result.MaxPlasma, result.MaxCe, result.MinBIS = summarize(result.Samples)
	return result, nil
}

// nearestEvent returns a pointer to the event closest to t if it falls
// within attachWindowMin, else nil.
func nearestEvent(events []pkpd.DoseEvent, t float64) *pkpd.DoseEvent {
	var best *pkpd.DoseEvent
	bestDist := math.Inf(1)
	for i := range events {
		d := math.Abs(events[i].TMinutes - t)
		if d <= attachWindowMin && d < bestDist {
			bestDist = d
			best = &events[i]
		}
	}
	return best
}
