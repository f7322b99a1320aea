package protocol

import (
	"fmt"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// Settings holds the tunable knobs of the closed-loop step-down
// controller and the grid search that picks its initial rate.
type Settings struct {
	TargetCe                  float64 // µg/mL
	UpperThresholdRatio       float64 // in [1.05, 1.30]
	ReductionFactor           float64 // in [0.50, 0.90]
	AdjustmentIntervalMin     float64 // >= 3
	TimeStepMin               float64 // 0.1 for protocol
	SimulationDurationMin     float64 // default 360
	MaintenancePoints         []float64
	MaxAdjustmentsPerHour     int
	MaintenanceTolerance      float64 // default 0.10
	EvaluationWindowMin       float64 // default 5
	MinimumRateMgPerHr        float64 // default 0.1
	ConvergenceThresholdRatio float64 // default 0.05
}

// DefaultSettings returns the recommended defaults for a given target
// effect-site concentration.
func DefaultSettings(targetCe float64) Settings {
	return Settings{
		TargetCe:                  targetCe,
		UpperThresholdRatio:       1.20,
		ReductionFactor:           0.70,
		AdjustmentIntervalMin:     5,
		TimeStepMin:               0.1,
		SimulationDurationMin:     360,
		MaintenancePoints:         []float64{30, 60, 90, 120},
		MaxAdjustmentsPerHour:     3,
		MaintenanceTolerance:      0.10,
		EvaluationWindowMin:       5,
		MinimumRateMgPerHr:        0.1,
		ConvergenceThresholdRatio: 0.05,
	}
}

// Validate checks every Settings field against its admissible range,
// aggregating every violation rather than failing on the first, matching
// pkpd.Patient.Validate's style.
func (s Settings) Validate() error {
	var fields []pkpd.FieldError
	add := func(field, msg string) { fields = append(fields, pkpd.FieldError{Field: field, Message: msg}) }

	if s.TargetCe <= 0 {
		add("target_ce", fmt.Sprintf("must be > 0, got %g", s.TargetCe))
	}
	if s.UpperThresholdRatio < 1.05 || s.UpperThresholdRatio > 1.30 {
		add("upper_threshold_ratio", fmt.Sprintf("must be in [1.05,1.30], got %g", s.UpperThresholdRatio))
	}
	if s.ReductionFactor < 0.50 || s.ReductionFactor > 0.90 {
		add("reduction_factor", fmt.Sprintf("must be in [0.50,0.90], got %g", s.ReductionFactor))
	}
	if s.AdjustmentIntervalMin < 3 {
		add("adjustment_interval_min", fmt.Sprintf("must be >= 3, got %g", s.AdjustmentIntervalMin))
	}
	if s.TimeStepMin <= 0 {
		add("time_step_min", fmt.Sprintf("must be > 0, got %g", s.TimeStepMin))
	}
	if s.SimulationDurationMin <= 0 {
		add("simulation_duration_min", fmt.Sprintf("must be > 0, got %g", s.SimulationDurationMin))
	}
	if len(s.MaintenancePoints) == 0 {
		add("maintenance_points", "must not be empty")
	}
	if s.MaxAdjustmentsPerHour < 1 {
		add("max_adjustments_per_hour", fmt.Sprintf("must be >= 1, got %d", s.MaxAdjustmentsPerHour))
	}
	if s.MinimumRateMgPerHr <= 0 {
		add("minimum_rate_mg_per_hr", fmt.Sprintf("must be > 0, got %g", s.MinimumRateMgPerHr))
	}
	if len(fields) > 0 {
		return &pkpd.ValidationError{Kind: ErrInvalidSettings, Fields: fields}
	}
	return nil
}
