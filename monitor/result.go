package monitor

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// Sample is a single 1-minute-resolution row of a monitoring run.
type Sample struct {
	TMin                float64
	Plasma              float64 // µg/mL
	Ce                  float64 // µg/mL
	InfusionRateMgPerHr float64
	BIS                 float64
	ActiveEvent         *pkpd.DoseEvent // non-nil if a dose event fell within ±0.5 min of this sample
}

// Result is the outcome of a monitoring run: the downsampled time series
// plus summary statistics.
type Result struct {
	Patient           pkpd.Patient
	Samples           []Sample
	MaxPlasma         float64
	MaxCe             float64
	MinBIS            float64
	IntegrationMethod string
	FallbackCount     int
}

// summarize fills in the Max/Min fields from Samples using gonum/floats.
func summarize(samples []Sample) (maxPlasma, maxCe, minBIS float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	plasma := make([]float64, len(samples))
	ce := make([]float64, len(samples))
	bis := make([]float64, len(samples))
	for i, s := range samples {
		plasma[i] = s.Plasma
		ce[i] = s.Ce
		bis[i] = s.BIS
	}
	return floats.Max(plasma), floats.Max(ce), floats.Min(bis)
}
