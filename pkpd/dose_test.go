package pkpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoseSchedule_Add_KeepsTimeOrder(t *testing.T) {
	// GIVEN events added out of order
	var d DoseSchedule
	require.NoError(t, d.Add(DoseEvent{TMinutes: 30}))
	require.NoError(t, d.Add(DoseEvent{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200}))
	require.NoError(t, d.Add(DoseEvent{TMinutes: 10}))

	// WHEN Events() is read back
	events := d.Events()

	// THEN they are sorted by time
	require.Len(t, events, 3)
	assert.Equal(t, []float64{0, 10, 30}, []float64{events[0].TMinutes, events[1].TMinutes, events[2].TMinutes})
}

func TestDoseSchedule_Add_MergesIdenticalTimes(t *testing.T) {
	// GIVEN two events at the identical time
	var d DoseSchedule
	require.NoError(t, d.Add(DoseEvent{TMinutes: 30, BolusMg: 10, ContinuousMgPerHr: 100}))
	require.NoError(t, d.Add(DoseEvent{TMinutes: 30, BolusMg: 5, ContinuousMgPerHr: 150}))

	// WHEN Events() is read back
	events := d.Events()

	// THEN the bolus sums and the later rate wins
	require.Len(t, events, 1)
	assert.Equal(t, 15.0, events[0].BolusMg)
	assert.Equal(t, 150.0, events[0].ContinuousMgPerHr)
}

func TestDoseSchedule_Add_RejectsOutOfRange(t *testing.T) {
	var d DoseSchedule
	err := d.Add(DoseEvent{TMinutes: -1, BolusMg: 1000})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDoseEvent)
}

func TestDoseSchedule_Remove_OutOfRangeIsNoOp(t *testing.T) {
	var d DoseSchedule
	require.NoError(t, d.Add(DoseEvent{TMinutes: 0}))
	d.Remove(99) // must not panic
	assert.Len(t, d.Events(), 1)
}

func TestDoseSchedule_Materialize_ZeroBolusStaysInitialA1(t *testing.T) {
	// GIVEN a schedule with a t=0 bolus, a continuous rate, and a later stop
	var d DoseSchedule
	require.NoError(t, d.Add(DoseEvent{TMinutes: 0, BolusMg: 140, ContinuousMgPerHr: 200}))
	require.NoError(t, d.Add(DoseEvent{TMinutes: 30, BolusMg: 0, ContinuousMgPerHr: 0}))

	// WHEN Materialize is called
	bolusStream, rateStream, initialA1 := d.Materialize()

	// THEN the t=0 bolus becomes InitialA1, not a bolus-stream entry
	assert.Equal(t, 140.0, initialA1)
	assert.Empty(t, bolusStream)
	require.Len(t, rateStream, 2)
	assert.Equal(t, RatePoint{0, 200}, rateStream[0])
	assert.Equal(t, RatePoint{30, 0}, rateStream[1])
}

func TestDoseSchedule_Materialize_PrependsZeroRateWhenUndefined(t *testing.T) {
	// GIVEN a schedule whose earliest event is a mid-run bolus with no
	// explicit t=0 rate
	var d DoseSchedule
	require.NoError(t, d.Add(DoseEvent{TMinutes: 10, BolusMg: 50}))

	// WHEN Materialize is called
	_, rateStream, initialA1 := d.Materialize()

	// THEN the rate stream starts with (0,0)
	assert.Equal(t, 0.0, initialA1)
	require.NotEmpty(t, rateStream)
	assert.Equal(t, RatePoint{0, 0}, rateStream[0])
}

func TestRateAt_PicksLatestKnotNotAfterT(t *testing.T) {
	rateStream := []RatePoint{{0, 200}, {30, 100}, {60, 0}}
	assert.Equal(t, 200.0, RateAt(rateStream, 0))
	assert.Equal(t, 200.0, RateAt(rateStream, 29.999))
	assert.Equal(t, 100.0, RateAt(rateStream, 30))
	assert.Equal(t, 100.0, RateAt(rateStream, 59))
	assert.Equal(t, 0.0, RateAt(rateStream, 100))
}
