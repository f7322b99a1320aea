// Ordered list of dose events and the streams it materializes for the
// integrator: an append-ordered slice with Add/Remove/Clear, kept sorted
// by time instead of pure FIFO.

package pkpd

import (
	"fmt"
	"sort"
)

// DoseEvent describes a single dosing action at a point in time.
type DoseEvent struct {
	TMinutes          float64
	BolusMg           float64
	ContinuousMgPerHr float64
}

// Validate checks a DoseEvent's fields against the ranges.
func (e DoseEvent) Validate() error {
	var fields []FieldError
	if e.TMinutes < 0 {
		fields = append(fields, FieldError{"t_minutes", fmt.Sprintf("must be >= 0, got %g", e.TMinutes)})
	}
	if e.BolusMg < 0 || e.BolusMg > 200 {
		fields = append(fields, FieldError{"bolus_mg", fmt.Sprintf("must be in [0,200], got %g", e.BolusMg)})
	}
	if e.ContinuousMgPerHr < 0 || e.ContinuousMgPerHr > 500 {
		fields = append(fields, FieldError{"continuous_mg_per_hr", fmt.Sprintf("must be in [0,500], got %g", e.ContinuousMgPerHr)})
	}
	if len(fields) > 0 {
		return &ValidationError{Kind: ErrInvalidDoseEvent, Fields: fields}
	}
	return nil
}

// DoseSchedule is an ordered list of DoseEvents sorted by TMinutes, stable
// across ties. Two events inserted at an identical time are merged: their
// bolus amounts sum, and the later-added event's rate is the declared value
// at that time.
type DoseSchedule struct {
	events []DoseEvent
}

// Add validates and inserts an event in time order, merging with an
// existing event at the identical time.
func (d *DoseSchedule) Add(e DoseEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for i := range d.events {
		if d.events[i].TMinutes == e.TMinutes {
			d.events[i].BolusMg += e.BolusMg
			d.events[i].ContinuousMgPerHr = e.ContinuousMgPerHr
			return nil
		}
	}
	d.events = append(d.events, e)
	sort.SliceStable(d.events, func(i, j int) bool {
		return d.events[i].TMinutes < d.events[j].TMinutes
	})
	return nil
}

// Remove deletes the event at index i. Removing from an out-of-range
// index is a no-op; it never panics or errors.
func (d *DoseSchedule) Remove(i int) {
	if i < 0 || i >= len(d.events) {
		return
	}
	d.events = append(d.events[:i], d.events[i+1:]...)
}

// Clear removes every event.
func (d *DoseSchedule) Clear() {
	d.events = nil
}

// Events returns the schedule's events in time order. The returned slice is
// owned by the caller; mutating it does not affect the schedule.
func (d *DoseSchedule) Events() []DoseEvent {
	out := make([]DoseEvent, len(d.events))
	copy(out, d.events)
	return out
}

// RatePoint is a single knot of a piecewise-constant infusion-rate driving
// function: the rate mg/hr effective from T onward, until the next knot.
type RatePoint struct {
	TMinutes          float64
	ContinuousMgPerHr float64
}

// BolusPoint is a single instantaneous bolus event.
type BolusPoint struct {
	TMinutes float64
	BolusMg  float64
}

// Materialize reduces the schedule to the integrator's driving streams: a
// bolus stream of every event with BolusMg>0 (excluding the
// t=0 bolus, which becomes InitialA1), and a rate stream containing every
// distinct rate level, always starting with (0,0) if the schedule does not
// itself define a t=0 rate.
func (d *DoseSchedule) Materialize() (bolusStream []BolusPoint, rateStream []RatePoint, initialA1 float64) {
	hasZero := false
	for _, e := range d.events {
		if e.TMinutes == 0 {
			hasZero = true
			initialA1 = e.BolusMg
			if e.ContinuousMgPerHr != 0 {
				rateStream = append(rateStream, RatePoint{0, e.ContinuousMgPerHr})
			}
			continue
		}
		if e.BolusMg > 0 {
			bolusStream = append(bolusStream, BolusPoint{e.TMinutes, e.BolusMg})
		}
		rateStream = append(rateStream, RatePoint{e.TMinutes, e.ContinuousMgPerHr})
	}
	if !hasZero || (len(rateStream) == 0 || rateStream[0].TMinutes != 0) {
		rateStream = append([]RatePoint{{0, 0}}, rateStream...)
	}
	sort.SliceStable(rateStream, func(i, j int) bool { return rateStream[i].TMinutes < rateStream[j].TMinutes })
	sort.SliceStable(bolusStream, func(i, j int) bool { return bolusStream[i].TMinutes < bolusStream[j].TMinutes })
	return bolusStream, rateStream, initialA1
}

// RateAt returns the piecewise-constant infusion rate (mg/hr) in effect at
// time t, given a rate stream sorted by TMinutes ascending (as returned by
// Materialize).
func RateAt(rateStream []RatePoint, t float64) float64 {
	rate := 0.0
	for _, rp := range rateStream {
		if rp.TMinutes > t {
			break
		}
		rate = rp.ContinuousMgPerHr
	}
	return rate
}
