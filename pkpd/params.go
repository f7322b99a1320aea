package pkpd

import (
	"fmt"
	"math"
)

// PKParams holds the per-patient pharmacokinetic constants.
// A PKParams value is immutable once derived.
type PKParams struct {
	V1, V2, V3 float64 // L
	CL, Q2, Q3 float64 // L/min
	Ke0        float64 // 1/min

	// Derived first-order rate constants, 1/min.
	K10, K12, K21, K13, K31 float64
}

// PDParams holds the per-patient pharmacodynamic constants.
type PDParams struct {
	Ce50        float64 // µg/mL
	Ke0         float64 // 1/min; Derive sets it to the same value as PKParams.Ke0
	BISBaseline float64
	GammaLow    float64 // applies when Ce < Ce50
	GammaHigh   float64 // applies when Ce >= Ce50
}

// DerivationResult bundles the derived parameters with any advisory
// (non-fatal) warnings raised during derivation.
type DerivationResult struct {
	PK       PKParams
	PD       PDParams
	Warnings []string
}

// sigmoid implements sigmoid(x; e50, k) = x^k / (x^k + e50^k).
func sigmoid(x, e50, k float64) float64 {
	xk := math.Pow(x, k)
	return xk / (xk + math.Pow(e50, k))
}

// ageing implements ageing(theta, age; ageRef=35) = exp(theta*(age-ageRef)).
func ageing(theta, age, ageRef float64) float64 {
	return math.Exp(theta * (age - ageRef))
}

// opioidFactor implements opioid(theta, age, yes) = exp(theta*age), and
// opioid(theta, age, no) = 1.
func opioidFactor(theta, age float64, yes bool) float64 {
	if !yes {
		return 1.0
	}
	return math.Exp(theta * age)
}

// Derive computes the PK and PD parameters for a Patient following the
// allometric/maturation covariate model. It fails
// (ErrParameterDerivationFailure) when any derived parameter is
// non-positive; ke0/Ce50 outside their advisory bands are reported as
// warnings rather than failures.
func Derive(p Patient) (DerivationResult, error) {
	if err := p.Validate(); err != nil {
		return DerivationResult{}, err
	}

	age := p.AgeYears
	weight := p.WeightKg
	pma := p.PMAWeeks()
	const pmaRef = 35*52 + 40
	const ageRef = 35.0

	v1 := theta1 * sigmoid(weight, theta12, 1) / sigmoid(70, theta12, 1)
	v2 := theta2 * (weight / 70) * ageing(theta10, age, ageRef)
	v3 := theta3 * (p.FFM() / p.FFMRef()) * opioidFactor(theta13, age, p.Opioid)

	clTheta := theta4
	if p.Sex == SexFemale {
		clTheta = theta15
	}
	cl := clTheta * math.Pow(weight/70, 0.75) *
		sigmoid(pma, theta8, theta9) / sigmoid(pmaRef, theta8, theta9) *
		opioidFactor(theta11, age, p.Opioid)

	q2 := theta5 * math.Pow(v2/theta2, 0.75) * (1 + theta16*(1-sigmoid(pma, theta14, 1)))
	q3 := theta6 * math.Pow(v3/theta3, 0.75) *
		sigmoid(pma, theta14, 1) / sigmoid(pmaRef, theta14, 1)

	ke0 := pd2 * math.Pow(weight/70, -0.25)
	ce50 := pd1 * math.Exp(pd7*(age-ageRef))

	pk := PKParams{
		V1: v1, V2: v2, V3: v3,
		CL: cl, Q2: q2, Q3: q3,
		Ke0: ke0,
		K10: cl / v1, K12: q2 / v1, K21: q2 / v2,
		K13: q3 / v1, K31: q3 / v3,
	}
	pd := PDParams{
		Ce50:        ce50,
		Ke0:         ke0,
		BISBaseline: pd3,
		GammaLow:    pd9,
		GammaHigh:   pd4,
	}

	if err := validatePositive(pk, pd); err != nil {
		return DerivationResult{}, err
	}

	var warnings []string
	if ke0 < ke0AdvisoryMin || ke0 > ke0AdvisoryMax {
		warnings = append(warnings, fmt.Sprintf("ke0=%.4f outside advisory band [%.2f,%.2f]", ke0, ke0AdvisoryMin, ke0AdvisoryMax))
	}
	if ce50 < ce50AdvisoryMin || ce50 > ce50AdvisoryMax {
		warnings = append(warnings, fmt.Sprintf("ce50=%.4f outside advisory band [%.2f,%.2f]", ce50, ce50AdvisoryMin, ce50AdvisoryMax))
	}

	return DerivationResult{PK: pk, PD: pd, Warnings: warnings}, nil
}

// validatePositive fails with ErrParameterDerivationFailure if any derived
// PK/PD constant is non-positive.
func validatePositive(pk PKParams, pd PDParams) error {
	checks := []FieldError{}
	add := func(name string, v float64) {
		if !(v > 0) {
			checks = append(checks, FieldError{name, fmt.Sprintf("must be > 0, got %g", v)})
		}
	}
	add("V1", pk.V1)
	add("V2", pk.V2)
	add("V3", pk.V3)
	add("CL", pk.CL)
	add("Q2", pk.Q2)
	add("Q3", pk.Q3)
	add("ke0", pk.Ke0)
	add("ce50", pd.Ce50)
	add("bis_baseline", pd.BISBaseline)
	add("gamma_low", pd.GammaLow)
	add("gamma_high", pd.GammaHigh)
	if len(checks) > 0 {
		return &ValidationError{Kind: ErrParameterDerivationFailure, Fields: checks}
	}
	return nil
}
