package induction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

func referencePatient() pkpd.Patient {
	return pkpd.Patient{
		ID: "ref", AgeYears: 35, WeightKg: 70, HeightCm: 170,
		Sex: pkpd.SexMale, Opioid: true,
	}
}

// NotReady contract: calling Tick before Start is a no-op sentinel, never a
// panic or error.
func TestSimulator_Tick_NotRunning_ReturnsNotReadySentinel(t *testing.T) {
	s := NewSimulator()
	obs := s.Tick()
	assert.Equal(t, Observables{}, obs)
	assert.False(t, obs.Ready)
}

func TestSimulator_Start_IsIdempotent(t *testing.T) {
	s := NewSimulator()
	started, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)
	assert.True(t, started)

	startedAgain, err := s.Start(referencePatient(), 50, 50)
	require.NoError(t, err)
	assert.False(t, startedAgain)
}

func TestSimulator_Start_InvalidPatientFails(t *testing.T) {
	s := NewSimulator()
	bad := referencePatient()
	bad.AgeYears = 500
	_, err := s.Start(bad, 140, 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkpd.ErrInvalidPatient)
}

// At t=0, plasma = bolus/V1, ce=0, BIS≈baseline; at t=1min, plasma has
// fallen substantially, ce has risen monotonically from 0, BIS has fallen.
func TestSimulator_InductionTrace(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)

	result, err := pkpd.Derive(referencePatient())
	require.NoError(t, err)
	v1 := result.PK.V1

	plasma0 := 140.0 / v1
	assert.InDelta(t, 22.29, plasma0, 0.1)

	var prevCe float64
	ticks := int(1.0 / TickDtMin) // 1 simulated minute
	var obs Observables
	for i := 0; i < ticks; i++ {
		obs = s.Tick()
		assert.True(t, obs.Ready)
		assert.GreaterOrEqual(t, obs.Ce, prevCe)
		prevCe = obs.Ce
	}

	assert.Less(t, obs.Plasma, plasma0)
	assert.Greater(t, obs.Ce, 0.0)
	assert.Less(t, obs.BIS, result.PD.BISBaseline)
}

func TestSimulator_UpdateDose_IgnoredWhenNotRunning(t *testing.T) {
	s := NewSimulator()
	s.UpdateDose(50, 300) // must not panic
	assert.False(t, s.Running())
}

func TestSimulator_SnapshotRing_CapsAtTen(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		s.Tick()
	}
	assert.Len(t, s.Snapshots(), 10)
}

func TestSimulator_Callbacks_InvokedInOrderAndSwallowPanics(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)

	var order []int
	s.OnUpdate(func(Observables) { order = append(order, 1) })
	s.OnUpdate(func(Observables) { panic("boom") })
	s.OnUpdate(func(Observables) { order = append(order, 3) })

	assert.NotPanics(t, func() { s.Tick() })
	assert.Equal(t, []int{1, 3}, order)
}

func TestSimulator_Callback_RegisteredDuringTick_SkipsCurrentTick(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)

	calls := 0
	s.OnUpdate(func(Observables) {
		calls++
		s.OnUpdate(func(Observables) { calls += 100 })
	})

	s.Tick()
	assert.Equal(t, 1, calls) // the nested registration did not fire this tick

	s.Tick()
	assert.Equal(t, 102, calls) // it fires on the next tick
}

func TestSimulator_StopThenReset(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)
	s.Tick()

	s.Stop()
	assert.False(t, s.Running())
	assert.False(t, s.Tick().Ready)

	s.Reset()
	assert.Empty(t, s.Snapshots())
}

func TestManualTickSource_DrivesSimulator(t *testing.T) {
	s := NewSimulator()
	_, err := s.Start(referencePatient(), 140, 200)
	require.NoError(t, err)

	var ticksSource ManualTickSource
	stop := ticksSource.Start(TickCadence, func() { s.Tick() })
	defer stop()

	ticksSource.Advance(5)
	assert.InDelta(t, 5*TickDtMin, s.elapsedMin, 1e-9)
}
