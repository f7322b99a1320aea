package induction

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pkpdsim/pkpdsim/pkpd"
)

// TickDtMin is the fixed simulated time increment advanced per Tick. It is
// NOT tied to the host's real tick cadence.
const TickDtMin = 0.01

// TickCadence is the suggested host delivery cadence (~600ms real time).
// It only affects how often Tick is called, never how much simulated time
// a single Tick advances.
const TickCadence = 600 * time.Millisecond

// snapshotRingSize is the maximum number of retained snapshots.
const snapshotRingSize = 10

// Callback receives the live observables fanned out at the end of a tick.
type Callback func(Observables)

// Simulator is the live induction engine. It owns exactly
// one pkpd.CompartmentState at a time and is driven exclusively by Tick;
// callers never mutate its state directly.
type Simulator struct {
	running bool
	patient pkpd.Patient
	pk      pkpd.PKParams
	pd      pkpd.PDParams

	integrator *pkpd.Integrator
	state      pkpd.CompartmentState

	continuousMgPerHr float64
	elapsedMin        float64

	snapshots []Observables
	callbacks []Callback
}

// NewSimulator constructs an idle Simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// OnUpdate registers a callback, invoked in registration order at the end
// of every Tick. A callback added while Tick is fanning out (i.e. from
// within another callback) is appended but is guaranteed not to observe
// the in-progress tick - Tick snapshots the callback list before iterating.
func (s *Simulator) OnUpdate(cb Callback) {
	s.callbacks = append(s.callbacks, cb)
}

// Start derives PK/PD parameters for patient and begins a run with the
// given t=0 bolus (the initial condition for A1, not re-applied during
// stepping) and continuous infusion rate. Start is idempotent: calling it
// while already running is a no-op that returns false.
func (s *Simulator) Start(patient pkpd.Patient, bolusMg, continuousMgPerHr float64) (bool, error) {
	if s.running {
		return false, nil
	}
	result, err := pkpd.Derive(patient)
	if err != nil {
		return false, err
	}

	s.patient = patient
	s.pk = result.PK
	s.pd = result.PD
	s.integrator = pkpd.NewIntegrator(result.PK, pkpd.MethodRK4)
	s.integrator.RecordBolus(bolusMg)
	s.state = pkpd.CompartmentState{A1: bolusMg}
	s.continuousMgPerHr = continuousMgPerHr
	s.elapsedMin = 0
	s.snapshots = nil
	s.running = true
	return true, nil
}

// UpdateDose mutates the continuous infusion rate for an already-running
// simulation. Re-bolus mid-run is out of scope; the bolusMg
// argument is accepted for symmetry with Start but is ignored. Calling
// UpdateDose while not running is a no-op.
func (s *Simulator) UpdateDose(_ float64, continuousMgPerHr float64) {
	if !s.running {
		return
	}
	s.continuousMgPerHr = continuousMgPerHr
}

// Tick advances the simulation by the fixed TickDtMin, recomputes plasma
// and BIS, takes a ring snapshot, and fans the result out to callbacks.
// Calling Tick while not running is a no-op that returns a zero-value
// (Ready=false) Observables.
func (s *Simulator) Tick() Observables {
	if !s.running {
		return Observables{}
	}

	rateMgPerMin := s.continuousMgPerHr / 60.0
	next, fellBack, err := s.integrator.Advance(s.state, rateMgPerMin, TickDtMin)
	if err != nil {
		logrus.WithError(err).Error("induction: integrator diverged twice in one run, stopping")
		s.running = false
		return Observables{}
	}
	if fellBack {
		logrus.Warn("induction: integrator NaN/Inf recovered via reset-to-safe-state")
	}
	s.state = next
	s.elapsedMin += TickDtMin

	obs := Observables{
		Ready:             true,
		ElapsedMin:        s.elapsedMin,
		ElapsedString:     formatElapsed(s.elapsedMin),
		Plasma:            s.state.A1 / s.pk.V1,
		Ce:                s.state.Ce,
		BIS:               s.pd.BIS(s.state.Ce),
		IntegrationMethod: s.integrator.Method.String(),
	}

	s.takeSnapshot(obs)
	s.fanOut(obs)
	return obs
}

// takeSnapshot pushes obs onto the ring, rotating out the oldest entry once
// the ring holds snapshotRingSize elements.
func (s *Simulator) takeSnapshot(obs Observables) {
	s.snapshots = append(s.snapshots, obs)
	if len(s.snapshots) > snapshotRingSize {
		s.snapshots = s.snapshots[len(s.snapshots)-snapshotRingSize:]
	}
}

// fanOut invokes every registered callback synchronously, in registration
// order, over a snapshot of the callback list taken before iteration
// begins - so a callback registered from within another callback during
// this fan-out is deferred to the next Tick. A callback that panics is
// recovered and logged; it never aborts the tick loop.
func (s *Simulator) fanOut(obs Observables) {
	cbs := s.callbacks
	for _, cb := range cbs {
		invokeCallback(cb, obs)
	}
}

func invokeCallback(cb Callback, obs Observables) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Warn("induction: callback panicked, swallowing")
		}
	}()
	cb(obs)
}

// Snapshots returns a copy of the retained snapshot ring, oldest first.
func (s *Simulator) Snapshots() []Observables {
	out := make([]Observables, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// Running reports whether the simulator currently owns a live run.
func (s *Simulator) Running() bool { return s.running }

// Stop halts the simulation immediately. It is idempotent; no in-flight
// tick is interrupted (Tick never yields mid-step).
func (s *Simulator) Stop() {
	s.running = false
}

// Reset stops the run and discards all simulator-owned state (patient,
// parameters, compartment state, snapshots) but keeps registered callbacks;
// compartment state is destroyed on stop/reset rather than retained.
func (s *Simulator) Reset() {
	cbs := s.callbacks
	*s = Simulator{callbacks: cbs}
}
