// Package induction implements the live induction simulator: a real-time
// loop that advances the shared pkpd compartment model on a fixed
// *simulated* time step per tick, independent of the host's actual tick
// cadence, and fans state out to registered callbacks.
package induction
