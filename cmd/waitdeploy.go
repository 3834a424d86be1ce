package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/config"
)

var waitDeployAttempts int

var waitDeployCmd = &cobra.Command{
	Use:   "wait-deploy <address>",
	Short: "Wait for a contract deployed elsewhere to become active",
	Long: `Wait-deploy polls the address until it is active, then verifies the
transaction that activated it. Use it after signing a deployment outside
this tool, for example through a deeplink opened later.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		p, err := buildProvider(cmd, true)
		if err != nil {
			return err
		}
		_, err = p.WaitForDeploy(cmd.Context(), addr, waitDeployAttempts, config.DeployInterval)
		return err
	},
}

func init() {
	waitDeployCmd.Flags().IntVar(&waitDeployAttempts, "attempts", config.DeployAttempts, "activation polls before giving up")
}
