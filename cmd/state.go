package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var stateCmd = &cobra.Command{
	Use:   "state <address>",
	Short: "Show the state of an account",
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

		out.SetActionPrompt("Fetching account state...")
		st, err := p.Provider(addr, nil).State(cmd.Context())
		out.ClearActionPrompt()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Address", ui.Addr(p.FormatAddress(addr))},
			{"Status", string(st.Status)},
			{"Balance", st.Balance.String() + " TON"},
		}
		if st.LastLT != 0 {
			pairs = append(pairs, [2]string{"Last LT", fmt.Sprint(st.LastLT)})
		}
		if len(st.LastHash) > 0 {
			pairs = append(pairs, [2]string{"Last hash", hex.EncodeToString(st.LastHash)})
		}
		if st.Code != nil {
			pairs = append(pairs, [2]string{"Code hash", hex.EncodeToString(st.Code.Hash())})
		}
		if st.Data != nil {
			pairs = append(pairs, [2]string{"Data hash", hex.EncodeToString(st.Data.Hash())})
		}
		pairs = append(pairs, [2]string{"Explorer", p.AddressLink(addr)})

		out.Write(ui.KeyValueBlock("Account", pairs))
		return nil
	},
}
