package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var txsLimit int

var txsCmd = &cobra.Command{
	Use:   "txs <address>",
	Short: "List recent transactions of an account",
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

		out.SetActionPrompt(fmt.Sprintf("Fetching last %d transactions...", txsLimit))
		txs, err := p.Provider(addr, nil).Transactions(cmd.Context(), 0, nil, txsLimit)
		out.ClearActionPrompt()
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			out.Write(ui.Meta("No transactions found."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "LT", Width: 16},
			{Title: "Hash", Width: 14},
			{Title: "Time", Width: 20},
			{Title: "Exit", Width: 6},
			{Title: "Result", Width: 8},
		})
		for _, tx := range txs {
			exit := "-"
			if tx.ExitCode != nil {
				exit = fmt.Sprint(*tx.ExitCode)
			}
			result := "ok"
			if !tx.OverallSuccess() {
				result = "failed"
			}
			t.AddRow(ui.Row{
				fmt.Sprint(tx.LT),
				ui.TruncateAddr(tx.Hash),
				time.Unix(int64(tx.Timestamp), 0).UTC().Format("2006-01-02 15:04:05"),
				exit,
				result,
			})
		}
		t.Styles = func(_, col int, val string) lipgloss.Style {
			if col == 4 && val == "failed" {
				return ui.StyleError
			}
			return lipgloss.NewStyle()
		}

		out.Write(ui.StyleTitle.Render("Recent Transactions") + "  " + ui.Meta(p.FormatAddress(addr)))
		out.Write(t.Render())
		if link := p.AddressLink(addr); link != "" {
			out.Write(ui.Meta("Explorer: " + link))
		}
		return nil
	},
}

func init() {
	txsCmd.Flags().IntVarP(&txsLimit, "limit", "n", 10, "number of transactions")
}
