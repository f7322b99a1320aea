package protocol

import (
	"fmt"
	"math"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// simulate runs the closed-loop threshold step-down controller for a
// single candidate initial rate: advance one discrete step, apply
// whatever control action is due, repeat to completion.
//
// The controller implicitly moves through four states:
// INIT/RAMPING is simply "no adjustment has fired yet"; HOLDING is the
// steady condition between adjustments; REDUCING is the single step taken
// when the guard trips; TERMINAL is t >= SimulationDurationMin. Those are
// not separate states in this implementation because every guard is
// re-evaluated from scratch each step - there is no history-dependent
// transition a named enum would need to track beyond what lastAdjustmentT,
// adjustmentsThisHour and currentRate already carry.
func simulate(pk pkpd.PKParams, pd pkpd.PDParams, bolusMg, initialRate float64, s Settings) ([]Sample, []AdjustmentEvent, error) {
	dt := s.TimeStepMin
	nSteps := int(math.Round(s.SimulationDurationMin / dt))
	upperThreshold := s.TargetCe * s.UpperThresholdRatio

	integrator := pkpd.NewIntegrator(pk, pkpd.MethodRK4)
	integrator.RecordBolus(bolusMg)
	state := pkpd.CompartmentState{A1: bolusMg}

	currentRate := initialRate
	lastAdjustmentT := math.Inf(-1)
	adjustmentsThisHour := 0
	nextHourBoundary := 60.0

	var series []Sample
	var adjustments []AdjustmentEvent

	for i := 0; i <= nSteps; i++ {
		t := float64(i) * dt
		for t >= nextHourBoundary {
			adjustmentsThisHour = 0
			nextHourBoundary += 60
		}

		ce := state.Ce
		series = append(series, Sample{
			TMin:                t,
			Plasma:              state.A1 / pk.V1,
			Ce:                  ce,
			InfusionRateMgPerHr: currentRate,
			BIS:                 pd.BIS(ce),
		})

		if ce >= upperThreshold &&
			(t-lastAdjustmentT) >= s.AdjustmentIntervalMin &&
			adjustmentsThisHour < s.MaxAdjustmentsPerHour &&
			currentRate > s.MinimumRateMgPerHr {
			newRate := math.Max(s.MinimumRateMgPerHr, currentRate*s.ReductionFactor)
			adjustments = append(adjustments, AdjustmentEvent{
				TMin:             t,
				OldRate:          currentRate,
				NewRate:          newRate,
				CeAtEvent:        ce,
				AdjustmentNumber: len(adjustments) + 1,
				ReductionPercent: (1 - newRate/currentRate) * 100,
			})
			currentRate = newRate
			lastAdjustmentT = t
			adjustmentsThisHour++
		}

		if i == nSteps {
			break
		}
		next, _, err := integrator.Advance(state, currentRate/60.0, dt)
		if err != nil {
			return series, adjustments, fmt.Errorf("protocol: simulation diverged at t=%.1fmin: %w", t, err)
		}
		state = next
	}

	return series, adjustments, nil
}
