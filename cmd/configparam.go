package cmd

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

var configParamCmd = &cobra.Command{
	Use:   "config-param [id]",
	Short: "Read blockchain configuration parameters",
	Long:  "Without an id every parameter is listed with its cell hash; with an id the parameter cell is printed as a hex BOC.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildProvider(cmd, true)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid parameter id %q", args[0])
			}
			c, err := p.ConfigParam(cmd.Context(), uint32(id))
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("config parameter %d is not set", id)
			}
			out.Write(hex.EncodeToString(c.ToBOC()))
			return nil
		}

		params, err := p.ChainConfig(cmd.Context())
		if err != nil {
			return err
		}
		ids := make([]uint32, 0, len(params))
		for id := range params {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		t := ui.NewTable([]ui.Column{{Title: "ID", Width: 6}, {Title: "Cell hash", Width: 64}})
		for _, id := range ids {
			t.AddRow(ui.Row{fmt.Sprint(id), hex.EncodeToString(params[id].Hash())})
		}
		out.Write(t.Render())
		return nil
	},
}
