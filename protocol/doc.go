// Package protocol implements the step-down protocol optimizer: a
// compensation heuristic picks a search ceiling, a
// three-stage (coarse/medium/fine) grid search scans candidate initial
// infusion rates, each candidate is scored by simulating a closed-loop
// threshold step-down controller over the shared pkpd compartment model,
// and the best-scoring candidate is returned with its full trace.
package protocol
