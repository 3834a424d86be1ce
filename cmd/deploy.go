package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/compile"
	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var (
	deployAttempts int
	deployValue    string
	deployData     string
	deployBody     string
)

var deployCmd = &cobra.Command{
	Use:   "deploy <Contract>",
	Short: "Deploy a compiled contract and wait for it to become active",
	Long: `Deploy reads build/<Contract>.compiled.json, sends the state init with
--value through the selected signer and polls until the contract is
active. The deployment transaction is then verified and cross-checked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compile.Load(projectDir, args[0])
		if err != nil {
			return err
		}
		data, err := parseCell(deployData)
		if err != nil {
			return err
		}
		body, err := parseCell(deployBody)
		if err != nil {
			return err
		}
		value, err := parseTON(deployValue)
		if err != nil {
			return err
		}

		p, err := buildProvider(cmd, false)
		if err != nil {
			return err
		}
		defer p.Sender().Close()

		out.Write(ui.Meta("Deploying " + res.Name + " (code hash " + res.Hash + ")"))
		_, err = p.Deploy(cmd.Context(), res.StateInit(data), value, body, deployAttempts)
		return err
	},
}

func init() {
	deployCmd.Flags().IntVar(&deployAttempts, "attempts", config.DeployCLIAttempts, "activation polls before giving up")
	deployCmd.Flags().StringVar(&deployValue, "value", "0.05", "TON attached to the deployment")
	deployCmd.Flags().StringVar(&deployData, "data", "", "initial data cell as a hex or base64 BOC (default: empty cell)")
	deployCmd.Flags().StringVar(&deployBody, "body", "", "message body as a hex or base64 BOC")
}
