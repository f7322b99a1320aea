package cmd

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pkpdsim/pkpdsim/config"
	"github.com/pkpdsim/pkpdsim/protocol"
)

var protocolConfigPath string

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Search for an initial infusion rate under the closed-loop step-down controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(protocolConfigPath)
		if err != nil {
			return err
		}
		if cfg.Protocol == nil {
			return errors.New("config: missing top-level \"protocol\" section")
		}
		patient, err := cfg.Patient.ToPatient()
		if err != nil {
			return err
		}

		settings := cfg.Protocol.ToSettings()
		result, err := protocol.Optimize(patient, cfg.Protocol.BolusMg, cfg.Protocol.TargetReachMinutes, settings)
		if err != nil && !errors.Is(err, protocol.ErrOptimizerNoFeasibleRate) {
			return err
		}
		if err != nil {
			logrus.Warn(err)
		}

		result.Print(os.Stdout)
		return nil
	},
}

func init() {
	protocolCmd.Flags().StringVar(&protocolConfigPath, "config", "", "path to a patient+protocol YAML config")
	protocolCmd.MarkFlagRequired("config")
}
