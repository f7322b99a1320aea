package protocol

import (
	"fmt"
	"math"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// candidate pairs an initial rate with its simulated outcome.
type candidate struct {
	rate        float64
	series      []Sample
	adjustments []AdjustmentEvent
	performance Performance
}

// searchCeiling implements the compensation heuristic: it estimates how
// many step-downs a run will need and inflates the grid's upper bound so
// the search still covers rates that will be repeatedly reduced over the
// run.
func searchCeiling(s Settings) float64 {
	hours := s.SimulationDurationMin / 60.0
	estimatedStepDowns := math.Min(0.7*float64(s.MaxAdjustmentsPerHour)*hours, 15)
	cumulativeReduction := math.Pow(s.ReductionFactor, estimatedStepDowns)
	compensation := 1 / cumulativeReduction

	base := 800.0
	if s.TargetCe > 2.0 {
		base = 1200.0
	}
	return math.Min(2000, base*compensation)
}

// evaluate simulates and scores a single candidate initial rate.
func evaluate(pk pkpd.PKParams, pd pkpd.PDParams, bolusMg, rate float64, s Settings) (candidate, error) {
	series, adjustments, err := simulate(pk, pd, bolusMg, rate, s)
	if err != nil {
		return candidate{}, err
	}
	return candidate{
		rate:        rate,
		series:      series,
		adjustments: adjustments,
		performance: score(series, s),
	}, nil
}

// searchStage scans [lo, hi] (clamped to clampLo/clampHi) in steps of step,
// evaluating every candidate and returning the best by OverallScore.
func searchStage(pk pkpd.PKParams, pd pkpd.PDParams, bolusMg float64, s Settings, lo, hi, step, clampLo, clampHi float64) (candidate, error) {
	lo = math.Max(lo, clampLo)
	hi = math.Min(hi, clampHi)

	var best candidate
	haveBest := false
	for rate := lo; rate <= hi+1e-9; rate += step {
		c, err := evaluate(pk, pd, bolusMg, rate, s)
		if err != nil {
			return candidate{}, err
		}
		if !haveBest || c.performance.OverallScore > best.performance.OverallScore {
			best = c
			haveBest = true
		}
	}
	if !haveBest {
		return candidate{}, fmt.Errorf("protocol: empty search range [%g,%g]", lo, hi)
	}
	return best, nil
}

// Optimize runs the full three-stage grid search and closed-loop
// simulation and returns the best-scoring candidate. Patient
// validation/derivation failures abort the run and return a zero Result; a
// grid search that never finds a positive-scoring candidate still returns
// its best-effort Result, wrapped with ErrOptimizerNoFeasibleRate.
func Optimize(patient pkpd.Patient, bolusMg, targetReachMin float64, s Settings) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	deriv, err := pkpd.Derive(patient)
	if err != nil {
		return Result{}, err
	}
	_ = targetReachMin // accepted for API parity with the caller's inputs; not consumed by any scoring formula

	ceiling := searchCeiling(s)

	coarseStep := 30.0
	if s.TargetCe > 2.0 {
		coarseStep = 40.0
	}
	bestCoarse, err := searchStage(deriv.PK, deriv.PD, bolusMg, s, 100, ceiling, coarseStep, 100, ceiling)
	if err != nil {
		return Result{}, err
	}

	mediumSpan := math.Max(150, 0.3*bestCoarse.rate)
	bestMedium, err := searchStage(deriv.PK, deriv.PD, bolusMg, s,
		bestCoarse.rate-mediumSpan, bestCoarse.rate+mediumSpan, 10, 50, ceiling)
	if err != nil {
		return Result{}, err
	}

	fineSpan := math.Max(50, 0.1*bestMedium.rate)
	bestFine, err := searchStage(deriv.PK, deriv.PD, bolusMg, s,
		bestMedium.rate-fineSpan, bestMedium.rate+fineSpan, 2, 20, ceiling)
	if err != nil {
		return Result{}, err
	}

	best := bestFine
	if bestMedium.performance.OverallScore > best.performance.OverallScore {
		best = bestMedium
	}
	if bestCoarse.performance.OverallScore > best.performance.OverallScore {
		best = bestCoarse
	}

	result := Result{
		OptimalInitialRate: best.rate,
		Series:             best.series,
		Adjustments:        best.adjustments,
		Performance:        best.performance,
		Schedule:           buildSchedule(best, bolusMg, s),
	}

	if best.performance.OverallScore <= 0 {
		result.Warning = "grid search did not find a candidate with a positive overall score; returning best-effort rate"
		return result, fmt.Errorf("%w: best overall score %.2f", ErrOptimizerNoFeasibleRate, best.performance.OverallScore)
	}
	return result, nil
}

// buildSchedule renders the human-readable bolus/infusion/step-down/
// maintenance account of a completed optimization run.
func buildSchedule(best candidate, bolusMg float64, s Settings) Schedule {
	var rows []ScheduleRow
	rows = append(rows, ScheduleRow{Label: "Bolus", TMin: 0, Note: fmt.Sprintf("%.0f mg", bolusMg)})

	startCe := 0.0
	if len(best.series) > 0 {
		startCe = best.series[0].Ce
	}
	rows = append(rows, ScheduleRow{Label: "Start infusion", TMin: 0, RateMgPerHr: best.rate, Ce: startCe})

	for _, adj := range best.adjustments {
		rows = append(rows, ScheduleRow{
			Label:       fmt.Sprintf("Step-down #%d", adj.AdjustmentNumber),
			TMin:        adj.TMin,
			RateMgPerHr: adj.NewRate,
			Ce:          adj.CeAtEvent,
			Note:        fmt.Sprintf("-%.0f%%", adj.ReductionPercent),
		})
	}

	for _, tau := range s.MaintenancePoints {
		rows = append(rows, ScheduleRow{
			Label: fmt.Sprintf("Maintenance @ %g min", tau),
			TMin:  tau,
			Ce:    meanCeInWindow(best.series, tau, s.EvaluationWindowMin),
		})
	}

	return Schedule{Rows: rows}
}
