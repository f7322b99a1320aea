package protocol

import (
	"fmt"
	"io"
)

// Sample is a single point of the protocol's full-resolution time series
// (sampled at Settings.TimeStepMin - unlike the monitor package, this is
// not downsampled to 1 minute).
type Sample struct {
	TMin                float64
	Plasma              float64
	Ce                  float64
	InfusionRateMgPerHr float64
	BIS                 float64
}

// AdjustmentEvent records a single step-down decision made by the closed-loop
// controller.
type AdjustmentEvent struct {
	TMin             float64
	OldRate          float64
	NewRate          float64
	CeAtEvent        float64
	AdjustmentNumber int
	ReductionPercent float64
}

// Performance bundles the scoring metrics produced by score.
type Performance struct {
	MaintenanceScore   float64
	StabilityIndex     float64
	ConvergenceTimeMin float64 // +Inf if the run never converged
	OvershootPercent   float64
	TimeInTarget       float64
	OverallScore       float64
}

// ScheduleRow is one human-readable row of a Schedule: a bolus, the start of
// infusion, a step-down, or a maintenance-point summary.
type ScheduleRow struct {
	Label       string
	TMin        float64
	RateMgPerHr float64
	Ce          float64
	Note        string
}

// Schedule is the ordered, human-readable account of a protocol run.
type Schedule struct {
	Rows []ScheduleRow
}

// Result bundles a completed protocol optimization run.
type Result struct {
	OptimalInitialRate float64
	Series             []Sample
	Adjustments        []AdjustmentEvent
	Performance        Performance
	Schedule           Schedule
	Warning            string // non-empty when the grid search fell back to a best-effort candidate
}

// Print writes a human-readable summary to w.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Protocol Optimization Result ===")
	fmt.Fprintf(w, "Optimal Initial Rate : %.1f mg/hr\n", r.OptimalInitialRate)
	fmt.Fprintf(w, "Adjustments          : %d\n", len(r.Adjustments))
	fmt.Fprintf(w, "Maintenance Score    : %.1f\n", r.Performance.MaintenanceScore)
	fmt.Fprintf(w, "Stability Index      : %.1f\n", r.Performance.StabilityIndex)
	fmt.Fprintf(w, "Overshoot            : %.1f%%\n", r.Performance.OvershootPercent)
	fmt.Fprintf(w, "Time In Target       : %.1f%%\n", r.Performance.TimeInTarget*100)
	fmt.Fprintf(w, "Overall Score        : %.1f\n", r.Performance.OverallScore)
	if r.Warning != "" {
		fmt.Fprintf(w, "Warning              : %s\n", r.Warning)
	}
	for _, row := range r.Schedule.Rows {
		fmt.Fprintf(w, "  %-16s t=%6.1f rate=%7.1f ce=%5.3f %s\n", row.Label, row.TMin, row.RateMgPerHr, row.Ce, row.Note)
	}
}
