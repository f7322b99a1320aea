package protocol

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// score evaluates a candidate run's time series against Settings, producing
// the full Performance bundle (maintenance, stability, convergence,
// overshoot, time-in-target, and an overall weighted score). It exercises
// gonum/stat for the mean reductions rather than hand-rolled loops.
func score(series []Sample, s Settings) Performance {
	if len(series) == 0 {
		return Performance{}
	}

	pointScores := make([]float64, 0, len(s.MaintenancePoints))
	for _, tau := range s.MaintenancePoints {
		mean := meanCeInWindow(series, tau, s.EvaluationWindowMin)
		e := math.Abs(mean-s.TargetCe) / s.TargetCe
		if e <= s.MaintenanceTolerance {
			pointScores = append(pointScores, 100)
		} else {
			pointScores = append(pointScores, math.Max(0, 100-500*e))
		}
	}
	maintenanceScore := stat.Mean(pointScores, nil)

	ceValues := make([]float64, len(series))
	for i, sm := range series {
		ceValues[i] = sm.Ce
	}
	diffs := make([]float64, 0, len(ceValues)-1)
	for i := 1; i < len(ceValues); i++ {
		diffs = append(diffs, math.Abs(ceValues[i]-ceValues[i-1]))
	}
	meanAbsDiff := 0.0
	if len(diffs) > 0 {
		meanAbsDiff = stat.Mean(diffs, nil)
	}
	stabilityIndex := math.Max(0, 100-1000*meanAbsDiff)

	convergenceTime := math.Inf(1)
	threshold := s.ConvergenceThresholdRatio * s.TargetCe
	for _, sm := range series {
		if math.Abs(sm.Ce-s.TargetCe) <= threshold {
			convergenceTime = sm.TMin
			break
		}
	}

	maxCe := floats.Max(ceValues)
	overshootPercent := math.Max(0, (maxCe/s.TargetCe-1)*100)

	inTarget := 0
	targetBand := s.MaintenanceTolerance * s.TargetCe
	for _, v := range ceValues {
		if math.Abs(v-s.TargetCe) <= targetBand {
			inTarget++
		}
	}
	timeInTarget := float64(inTarget) / float64(len(ceValues))

	convergenceScore := 100.0
	if convergenceTime >= 30 {
		convergenceScore = math.Max(0, 100-2*(convergenceTime-30))
	}

	overallScore := math.Max(0, 0.5*maintenanceScore+0.25*stabilityIndex+0.25*convergenceScore-1.5*math.Max(0, overshootPercent-10))

	return Performance{
		MaintenanceScore:   maintenanceScore,
		StabilityIndex:     stabilityIndex,
		ConvergenceTimeMin: convergenceTime,
		OvershootPercent:   overshootPercent,
		TimeInTarget:       timeInTarget,
		OverallScore:       overallScore,
	}
}

// meanCeInWindow returns the mean ce over samples with TMin in
// [tau-window/2, tau+window/2].
func meanCeInWindow(series []Sample, tau, window float64) float64 {
	lo, hi := tau-window/2, tau+window/2
	var values []float64
	for _, sm := range series {
		if sm.TMin >= lo && sm.TMin <= hi {
			values = append(values, sm.Ce)
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
