package pkpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referencePatient() Patient {
	return Patient{
		ID:       "ref",
		AgeYears: 35,
		WeightKg: 70,
		HeightCm: 170,
		Sex:      SexMale,
		ASA:      ASA_I_II,
		Opioid:   true,
	}
}

func withinPercent(t *testing.T, got, want, pct float64, name string) {
	t.Helper()
	tol := want * pct / 100
	assert.InDeltaf(t, want, got, tol, "%s: got %v, want %v within %v%%", name, got, want, pct)
}

// Derive(reference) must yield the published reference values, each
// within 0.5%.
func TestDerive_ReferenceIndividual(t *testing.T) {
	// GIVEN the published reference individual (35y/170cm/70kg male, opioid)
	result, err := Derive(referencePatient())
	require.NoError(t, err)

	// WHEN derive() is called
	pk, pd := result.PK, result.PD

	// THEN every parameter matches the published reference within 0.5%
	withinPercent(t, pk.V1, 6.28, 0.5, "V1")
	withinPercent(t, pk.V2, 25.5, 0.5, "V2")
	withinPercent(t, pk.V3, 273.0, 0.5, "V3")
	withinPercent(t, pk.CL, 1.79, 0.5, "CL")
	withinPercent(t, pk.Q2, 1.83, 0.5, "Q2")
	withinPercent(t, pk.Q3, 1.11, 0.5, "Q3")
	withinPercent(t, pk.Ke0, 0.146, 0.5, "ke0")
	withinPercent(t, pd.Ce50, 3.08, 0.5, "ce50")
	withinPercent(t, pd.BISBaseline, 93.0, 0.5, "bis_baseline")
	withinPercent(t, pd.GammaLow, 1.89, 0.5, "gamma_low")
	withinPercent(t, pd.GammaHigh, 1.47, 0.5, "gamma_high")
}

// Same covariates with sex=female yields CL≈2.10 L/min and every other
// PK parameter within 1% of the male reference values.
func TestDerive_FemaleClearance(t *testing.T) {
	// GIVEN the reference individual with sex flipped to female
	male, err := Derive(referencePatient())
	require.NoError(t, err)

	female := referencePatient()
	female.Sex = SexFemale
	femaleResult, err := Derive(female)
	require.NoError(t, err)

	// WHEN derive() is called for both
	// THEN clearance differs per the sex-specific formula
	withinPercent(t, femaleResult.PK.CL, 2.10, 0.5, "female CL")

	// AND every other PK parameter stays within 1% of the male reference
	withinPercent(t, femaleResult.PK.V1, male.PK.V1, 1, "V1")
	withinPercent(t, femaleResult.PK.V2, male.PK.V2, 1, "V2")
	withinPercent(t, femaleResult.PK.V3, male.PK.V3, 1, "V3")
	withinPercent(t, femaleResult.PK.Q2, male.PK.Q2, 1, "Q2")
	withinPercent(t, femaleResult.PK.Q3, male.PK.Q3, 1, "Q3")
	withinPercent(t, femaleResult.PK.Ke0, male.PK.Ke0, 1, "ke0")
}

func TestDerive_InvalidPatient_ReturnsFieldList(t *testing.T) {
	// GIVEN a patient with two out-of-range covariates
	p := referencePatient()
	p.AgeYears = 200
	p.WeightKg = 1

	// WHEN derive() is called
	_, err := Derive(p)

	// THEN it fails with both problems listed
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, verr, ErrInvalidPatient)
	assert.Len(t, verr.Fields, 2)
}

func TestDerive_AdvisoryBand_ProducesWarningNotError(t *testing.T) {
	// GIVEN a patient whose derived ce50 falls outside the advisory band
	// (extreme old age pushes Ce50 above 10 µg/mL via the age exponential)
	p := referencePatient()
	p.AgeYears = 90

	// WHEN derive() is called
	result, err := Derive(p)

	// THEN it still succeeds, with the out-of-band value reported as a
	// warning rather than silently dropped or fatal
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)
	assert.Greater(t, result.PD.Ce50, ce50AdvisoryMax)
}
