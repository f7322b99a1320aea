package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkpdsim/pkpdsim/induction"
	"github.com/pkpdsim/pkpdsim/pkpd"
)

func referencePatient() pkpd.Patient {
	return pkpd.Patient{
		ID: "ref", AgeYears: 35, WeightKg: 70, HeightCm: 170,
		Sex: pkpd.SexMale, Opioid: true,
	}
}

// Identical inputs produce bit-identical output series.
func TestDeterminism(t *testing.T) {
	events := []pkpd.DoseEvent{{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200}}
	a, err := Run(referencePatient(), events, 5)
	require.NoError(t, err)
	b, err := Run(referencePatient(), events, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// The monitoring engine's ce/plasma/BIS at every 1-minute sample agrees
// with the live induction engine ticking the same dose history, to within
// 1e-6, since both paths evaluate the identical joint RK4 recurrence.
func TestEngineAgreement(t *testing.T) {
	patient := referencePatient()
	events := []pkpd.DoseEvent{{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200}}
	horizonMin := 5.0

	result, err := Run(patient, events, horizonMin)
	require.NoError(t, err)
	require.NotEmpty(t, result.Samples)

	sim := induction.NewSimulator()
	started, err := sim.Start(patient, 140, 200)
	require.NoError(t, err)
	require.True(t, started)

	ticksPerMinute := int(1.0 / induction.TickDtMin)
	var liveByMinute []induction.Observables
	for minute := 0; minute < int(horizonMin); minute++ {
		var obs induction.Observables
		for i := 0; i < ticksPerMinute; i++ {
			obs = sim.Tick()
		}
		liveByMinute = append(liveByMinute, obs)
	}

	for minute, obs := range liveByMinute {
		sample := result.Samples[minute+1] // Samples[0] is t=0
		assert.InDelta(t, obs.Ce, sample.Ce, 1e-6, "ce mismatch at minute %d", minute+1)
		assert.InDelta(t, obs.Plasma, sample.Plasma, 1e-6, "plasma mismatch at minute %d", minute+1)
		assert.InDelta(t, obs.BIS, sample.BIS, 1e-6, "bis mismatch at minute %d", minute+1)
	}
}

// A continuous infusion that is stopped mid-run causes plasma to decay
// monotonically afterward; ce continues to track it down once it crosses.
func TestRun_MonitoringWithStop(t *testing.T) {
	patient := referencePatient()
	events := []pkpd.DoseEvent{
		{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200},
		{TMinutes: 10, ContinuousMgPerHr: 0},
	}
	result, err := Run(patient, events, 40)
	require.NoError(t, err)

	var plasmaAt10, plasmaAt15, plasmaAt39 float64
	for _, s := range result.Samples {
		switch s.TMin {
		case 10:
			plasmaAt10 = s.Plasma
		case 15:
			plasmaAt15 = s.Plasma
		case 39:
			plasmaAt39 = s.Plasma
		}
	}
	assert.Less(t, plasmaAt15, plasmaAt10)
	assert.Less(t, plasmaAt39, plasmaAt15)
}

func TestRun_InvalidPatientFails(t *testing.T) {
	bad := referencePatient()
	bad.WeightKg = 900
	_, err := Run(bad, nil, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkpd.ErrInvalidPatient)
}

func TestRun_InvalidDoseEventFails(t *testing.T) {
	events := []pkpd.DoseEvent{{TMinutes: -5, BolusMg: 10}}
	_, err := Run(referencePatient(), events, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkpd.ErrInvalidDoseEvent)
}

// A written CSV round-trips structurally - two header lines followed by
// exactly one row per 1-minute sample, with well-formed numeric columns.
func TestCSVRoundTrip(t *testing.T) {
	patient := referencePatient()
	patient.ASA = pkpd.ASA_I_II
	events := []pkpd.DoseEvent{{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200}}
	result, err := Run(patient, events, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, result))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2+len(result.Samples))
	assert.Contains(t, lines[0], "Patient ID:ref")
	assert.Contains(t, lines[0], "Opioid:yes")
	assert.Equal(t, "Time,Predicted Plasma Conc.(µg/mL),Predicted Effect-site Conc.(µg/mL),Predicted BIS Value", lines[1])

	for _, line := range lines[2:] {
		cols := strings.Split(line, ",")
		require.Len(t, cols, 4)
	}
}

func TestRun_DefaultHorizon_ExtendsPastLastEvent(t *testing.T) {
	events := []pkpd.DoseEvent{
		{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200},
		{TMinutes: 30, ContinuousMgPerHr: 100},
	}
	result, err := Run(referencePatient(), events, 0)
	require.NoError(t, err)
	last := result.Samples[len(result.Samples)-1]
	assert.GreaterOrEqual(t, last.TMin, 30+defaultTailMin)
}
