package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pkpdsim/pkpdsim/config"
	"github.com/pkpdsim/pkpdsim/pkpd"
)

var deriveConfigPath string

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive PK/PD parameters for a patient from a YAML config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(deriveConfigPath)
		if err != nil {
			return err
		}
		patient, err := cfg.Patient.ToPatient()
		if err != nil {
			return err
		}

		result, err := pkpd.Derive(patient)
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			logrus.Warn(w)
		}

		fmt.Printf("V1=%.3f L  V2=%.3f L  V3=%.3f L\n", result.PK.V1, result.PK.V2, result.PK.V3)
		fmt.Printf("CL=%.3f L/min  Q2=%.3f L/min  Q3=%.3f L/min\n", result.PK.CL, result.PK.Q2, result.PK.Q3)
		fmt.Printf("ke0=%.4f /min\n", result.PK.Ke0)
		fmt.Printf("Ce50=%.3f µg/mL  BISBaseline=%.1f  GammaLow=%.3f  GammaHigh=%.3f\n",
			result.PD.Ce50, result.PD.BISBaseline, result.PD.GammaLow, result.PD.GammaHigh)
		return nil
	},
}

func init() {
	deriveCmd.Flags().StringVar(&deriveConfigPath, "config", "", "path to a patient YAML config")
	deriveCmd.MarkFlagRequired("config")
}
