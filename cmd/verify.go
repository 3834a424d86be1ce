package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/provider"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <address>",
	Short: "Verify the latest transaction of a deployed contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		p, err := buildProvider(cmd, true)
		if err != nil {
			return err
		}

		rec, err := p.VerifyDeployTransaction(cmd.Context(), addr)
		if err != nil {
			return err
		}
		if rec == nil {
			out.Write(ui.Warn("No transaction found for " + p.FormatAddress(addr)))
			return nil
		}
		link := p.TxLink(addr, rec)
		if !rec.OverallSuccess() {
			return &provider.TransactionFailedError{Record: rec, Link: link}
		}
		out.Write(ui.Success("Latest transaction succeeded"))
		out.Write(ui.KeyValueBlock("Transaction", provider.Diagnostic(rec, link)))
		return nil
	},
}
