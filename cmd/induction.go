package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkpdsim/pkpdsim/config"
	"github.com/pkpdsim/pkpdsim/induction"
)

var (
	inductionConfigPath string
	inductionBolusMg    float64
	inductionRateMgPerH float64
	inductionDurationMi float64
	inductionFastMode   bool
)

var inductionCmd = &cobra.Command{
	Use:   "induction",
	Short: "Run the induction simulator for a fixed duration and print the final observables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(inductionConfigPath)
		if err != nil {
			return err
		}
		patient, err := cfg.Patient.ToPatient()
		if err != nil {
			return err
		}

		sim := induction.NewSimulator()
		if _, err := sim.Start(patient, inductionBolusMg, inductionRateMgPerH); err != nil {
			return err
		}

		ticks := int(inductionDurationMi / induction.TickDtMin)
		obs := runTicks(sim, ticks)

		fmt.Printf("elapsed=%s plasma=%.3f µg/mL ce=%.3f µg/mL bis=%.1f method=%s\n",
			obs.ElapsedString, obs.Plasma, obs.Ce, obs.BIS, obs.IntegrationMethod)
		return nil
	},
}

// runTicks drives sim for exactly n ticks and returns the final snapshot.
// In the default (real-time) mode it goes through RealTimeTickSource, the
// same host-tick-source abstraction a live monitor display would use, so
// the CLI is paced by the same cadence the simulator is designed for.
// --fast bypasses the host cadence and drives Tick directly in a bare
// loop, for quick scripted runs where waiting on real time isn't wanted.
func runTicks(sim *induction.Simulator, n int) induction.Observables {
	if inductionFastMode || n <= 0 {
		var obs induction.Observables
		for i := 0; i < n; i++ {
			obs = sim.Tick()
		}
		return obs
	}

	var obs induction.Observables
	done := make(chan struct{})
	count := 0
	var src induction.RealTimeTickSource
	stop := src.Start(induction.TickCadence, func() {
		if count >= n {
			return
		}
		obs = sim.Tick()
		count++
		if count >= n {
			close(done)
		}
	})
	<-done
	stop()
	return obs
}

func init() {
	inductionCmd.Flags().StringVar(&inductionConfigPath, "config", "", "path to a patient YAML config")
	inductionCmd.Flags().Float64Var(&inductionBolusMg, "bolus", 140, "bolus dose at t=0, mg")
	inductionCmd.Flags().Float64Var(&inductionRateMgPerH, "rate", 200, "continuous infusion rate, mg/hr")
	inductionCmd.Flags().Float64Var(&inductionDurationMi, "duration", 10, "simulated duration, minutes")
	inductionCmd.Flags().BoolVar(&inductionFastMode, "fast", false, "bypass the host tick cadence and advance immediately")
	inductionCmd.MarkFlagRequired("config")
}
