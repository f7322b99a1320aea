package induction

import (
	"fmt"
	"math"
)

// Observables is the live snapshot exposed to callers.
// A zero-value Observables (Ready=false) is the sentinel "no-op" result
// returned when an induction-only operation is called while not running,
// rather than an error.
type Observables struct {
	Ready             bool
	ElapsedMin        float64
	ElapsedString     string
	Plasma            float64
	Ce                float64
	BIS               float64
	IntegrationMethod string
}

// formatElapsed renders elapsed minutes as wall-clock HH:MM:SS.
func formatElapsed(elapsedMin float64) string {
	totalSeconds := int64(math.Round(elapsedMin * 60))
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
