package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var getCmd = &cobra.Command{
	Use:   "get <address> <method> [args...]",
	Short: "Run a get-method",
	Long: `Run a get-method of a contract. Arguments are integers (decimal or 0x hex),
boc:<hex|base64> for cells and addr:<address> for addresses.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		var stack []any
		for _, a := range args[2:] {
			v, err := parseStackArg(a)
			if err != nil {
				return err
			}
			stack = append(stack, v)
		}

		p, err := buildProvider(cmd, true)
		if err != nil {
			return err
		}
		out.SetActionPrompt(fmt.Sprintf("Running %s...", args[1]))
		res, err := p.Provider(addr, nil).Get(cmd.Context(), args[1], stack...)
		out.ClearActionPrompt()
		if err != nil {
			return err
		}

		if len(res) == 0 {
			out.Write(ui.Meta("(empty stack)"))
			return nil
		}
		for i, v := range res {
			out.Write(fmt.Sprintf("%s %s", ui.Meta(fmt.Sprintf("[%d]", i)), formatStackValue(v)))
		}
		return nil
	},
}
