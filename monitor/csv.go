package monitor

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// WriteCSV serializes result to the fixed two-header-line format.
func WriteCSV(w io.Writer, result Result) error {
	p := result.Patient
	opioid := "no"
	if p.Opioid {
		opioid = "yes"
	}
	anesthesiaStart := "unknown"
	if !p.AnesthesiaStart.IsZero() {
		anesthesiaStart = p.AnesthesiaStart.Format("15:04")
	}

	if _, err := fmt.Fprintf(w,
		"Patient ID:%s,Age:%s years,Weight:%s kg,Height:%s cm,Sex:%s,ASA:%s,Opioid:%s,Anesthesia Start:%s\n",
		p.ID, formatNumber(p.AgeYears, 0), formatNumber(p.WeightKg, 1), formatNumber(p.HeightCm, 1),
		p.Sex, blankIfEmpty(string(p.ASA)), opioid, anesthesiaStart,
	); err != nil {
		return fmt.Errorf("monitor: write csv header: %w", err)
	}

	if _, err := io.WriteString(w, "Time,Predicted Plasma Conc.(µg/mL),Predicted Effect-site Conc.(µg/mL),Predicted BIS Value\n"); err != nil {
		return fmt.Errorf("monitor: write csv column header: %w", err)
	}

	for _, s := range result.Samples {
		row := fmt.Sprintf("%s,%s,%s,%s\n",
			formatSampleTime(p.AnesthesiaStart, s.TMin),
			formatNumber(s.Plasma, 3),
			formatNumber(s.Ce, 3),
			formatNumber(s.BIS, 1),
		)
		if _, err := io.WriteString(w, row); err != nil {
			return fmt.Errorf("monitor: write csv row: %w", err)
		}
	}
	return nil
}

// formatSampleTime renders a sample's elapsed minutes as wall-clock HH:MM
// when the patient's anesthesia start is known, else as a plain integer
// minute offset.
func formatSampleTime(start time.Time, tMin float64) string {
	if start.IsZero() {
		return fmt.Sprintf("%d", int64(math.Round(tMin)))
	}
	return start.Add(time.Duration(math.Round(tMin*60)) * time.Second).Format("15:04")
}

// formatNumber renders v to the given decimal precision, or "N/A" if v is
// not finite.
func formatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

func blankIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unspecified"
	}
	return s
}
