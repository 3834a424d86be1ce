package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/provider"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var (
	sendAmount   string
	sendBody     string
	sendWait     bool
	sendAttempts int
)

var sendCmd = &cobra.Command{
	Use:   "send <address>",
	Short: "Send TON with an optional body to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := parseTON(sendAmount)
		if err != nil {
			return err
		}
		body, err := parseCell(sendBody)
		if err != nil {
			return err
		}
		if sendWait && sendAttempts <= 0 {
			return fmt.Errorf("--attempts must be positive")
		}

		p, err := buildProvider(cmd, false)
		if err != nil {
			return err
		}
		defer p.Sender().Close()

		err = p.Provider(to, nil).Internal(cmd.Context(), p.Sender(), provider.InternalArgs{Value: amount, Body: body})
		if err != nil {
			return err
		}
		out.Write(ui.Success(fmt.Sprintf("Sent %s TON to %s", amount.String(), p.FormatAddress(to))))

		if !sendWait {
			return nil
		}
		_, err = p.WaitForLastTransaction(cmd.Context(), sendAttempts, config.LastTxInterval)
		return err
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendAmount, "amount", "0", "TON to send")
	sendCmd.Flags().StringVar(&sendBody, "body", "", "message body as a hex or base64 BOC")
	sendCmd.Flags().BoolVar(&sendWait, "wait", false, "wait until the transaction shows up in the wallet history (TonConnect only)")
	sendCmd.Flags().IntVar(&sendAttempts, "attempts", config.LastTxAttempts, "polls while waiting")
}
