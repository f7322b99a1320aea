// Package config loads patient, dose schedule and protocol settings from
// YAML: strict decoding (unknown keys rejected) followed by a Validate()
// pass that aggregates every problem instead of failing on the first.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pkpdsim/pkpdsim/pkpd"
	"github.com/pkpdsim/pkpdsim/protocol"
)

// PatientConfig is the YAML-loadable shape of a pkpd.Patient.
type PatientConfig struct {
	ID              string  `yaml:"id"`
	AgeYears        float64 `yaml:"age_years"`
	WeightKg        float64 `yaml:"weight_kg"`
	HeightCm        float64 `yaml:"height_cm"`
	Sex             string  `yaml:"sex"`
	ASA             string  `yaml:"asa"`
	Opioid          bool    `yaml:"opioid"`
	AnesthesiaStart string  `yaml:"anesthesia_start"` // "HH:MM", optional
}

// ToPatient converts c to a pkpd.Patient. It does not itself validate
// covariate ranges - callers get that for free from pkpd.Derive or
// pkpd.Patient.Validate.
func (c PatientConfig) ToPatient() (pkpd.Patient, error) {
	p := pkpd.Patient{
		ID:       c.ID,
		AgeYears: c.AgeYears,
		WeightKg: c.WeightKg,
		HeightCm: c.HeightCm,
		Sex:      pkpd.Sex(c.Sex),
		ASA:      pkpd.ASAClass(c.ASA),
		Opioid:   c.Opioid,
	}
	if c.AnesthesiaStart != "" {
		start, err := time.Parse("15:04", c.AnesthesiaStart)
		if err != nil {
			return pkpd.Patient{}, fmt.Errorf("config: anesthesia_start %q: %w", c.AnesthesiaStart, err)
		}
		p.AnesthesiaStart = start
	}
	return p, nil
}

// DoseEventConfig is the YAML-loadable shape of a pkpd.DoseEvent.
type DoseEventConfig struct {
	TMinutes          float64 `yaml:"t_minutes"`
	BolusMg           float64 `yaml:"bolus_mg"`
	ContinuousMgPerHr float64 `yaml:"continuous_mg_per_hr"`
}

// ToDoseEvent converts c to a pkpd.DoseEvent.
func (c DoseEventConfig) ToDoseEvent() pkpd.DoseEvent {
	return pkpd.DoseEvent{
		TMinutes:          c.TMinutes,
		BolusMg:           c.BolusMg,
		ContinuousMgPerHr: c.ContinuousMgPerHr,
	}
}

// ProtocolConfig is the YAML-loadable shape of protocol.Settings. Pointer
// fields mean "not set in YAML, use the package default" rather than
// overriding it with a zero value.
type ProtocolConfig struct {
	TargetCe              float64  `yaml:"target_ce"`
	BolusMg               float64  `yaml:"bolus_mg"`
	TargetReachMinutes    float64  `yaml:"target_reach_time_min"`
	UpperThresholdRatio   *float64 `yaml:"upper_threshold_ratio"`
	ReductionFactor       *float64 `yaml:"reduction_factor"`
	AdjustmentIntervalMin *float64 `yaml:"adjustment_interval_min"`
	SimulationDurationMin *float64 `yaml:"simulation_duration_min"`
	MaxAdjustmentsPerHour *int     `yaml:"max_adjustments_per_hour"`
}

// ToSettings builds a protocol.Settings from c, layering any set fields over
// protocol.DefaultSettings(c.TargetCe).
func (c ProtocolConfig) ToSettings() protocol.Settings {
	s := protocol.DefaultSettings(c.TargetCe)
	if c.UpperThresholdRatio != nil {
		s.UpperThresholdRatio = *c.UpperThresholdRatio
	}
	if c.ReductionFactor != nil {
		s.ReductionFactor = *c.ReductionFactor
	}
	if c.AdjustmentIntervalMin != nil {
		s.AdjustmentIntervalMin = *c.AdjustmentIntervalMin
	}
	if c.SimulationDurationMin != nil {
		s.SimulationDurationMin = *c.SimulationDurationMin
	}
	if c.MaxAdjustmentsPerHour != nil {
		s.MaxAdjustmentsPerHour = *c.MaxAdjustmentsPerHour
	}
	return s
}

// RunConfig is the top-level YAML document loaded by the CLI: a patient, a
// dose schedule (for derive/induction/monitor subcommands), and optional
// protocol settings (for the protocol subcommand).
type RunConfig struct {
	Patient  PatientConfig     `yaml:"patient"`
	Events   []DoseEventConfig `yaml:"events"`
	Protocol *ProtocolConfig   `yaml:"protocol"`
}

// Load reads and strictly decodes a RunConfig from a YAML file, then
// validates it. Unrecognized keys (typos) are rejected, matching the
// teacher's LoadPolicyBundle.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the patient converts cleanly and every dose event is
// individually well-formed, aggregating every problem found.
func (c RunConfig) Validate() error {
	var fields []pkpd.FieldError

	patient, err := c.Patient.ToPatient()
	if err != nil {
		fields = append(fields, pkpd.FieldError{Field: "patient.anesthesia_start", Message: err.Error()})
	} else if verr := patient.Validate(); verr != nil {
		var ve *pkpd.ValidationError
		if errors.As(verr, &ve) {
			fields = append(fields, ve.Fields...)
		}
	}

	for i, e := range c.Events {
		if err := e.ToDoseEvent().Validate(); err != nil {
			var ve *pkpd.ValidationError
			if errors.As(err, &ve) {
				for _, f := range ve.Fields {
					fields = append(fields, pkpd.FieldError{
						Field:   fmt.Sprintf("events[%d].%s", i, f.Field),
						Message: f.Message,
					})
				}
			}
		}
	}

	if len(fields) > 0 {
		return &pkpd.ValidationError{Kind: pkpd.ErrInvalidPatient, Fields: fields}
	}
	return nil
}
