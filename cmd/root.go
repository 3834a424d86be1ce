package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/tonblueprint/internal/config"
	"github.com/Mohsinsiddi/tonblueprint/internal/logging"
	"github.com/Mohsinsiddi/tonblueprint/internal/provider"
	"github.com/Mohsinsiddi/tonblueprint/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/tonblueprint/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	projectDir string
	cfgFile    string
	verbose    bool
	plain      bool
	flags      provider.Flags

	cfg *config.Config
	log *zap.SugaredLogger
	out ui.UI
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tonblueprint",
	Short: "Deploy and talk to TON smart contracts",
	Long: `tonblueprint deploys TON contracts and waits until the chain confirms them.

  Pick the network with --mainnet, --testnet or --custom <endpoint>,
  the signer with --tonconnect, --deeplink or --mnemonic and the
  explorer used for links with --tonscan, --tonviewer, --toncx or --dton.
  Anything left unset is read from blueprint.config.{json,yaml,toml}
  or asked interactively.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		log = logging.New(verbose)
		if plain || !isTerminal(os.Stdout) {
			out = ui.NewPlain(os.Stdout)
		} else {
			out = ui.NewTerminal(os.Stdout)
		}

		if err := config.LoadEnv(projectDir); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(projectDir, cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if p := cfg.Path(); p != "" {
			log.Debugw("Loaded config", "path", p)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command under ctx. Errors are printed here.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
	}
	return err
}

// ExitCode maps the outcome of Execute to a process exit status. Dismissing
// a prompt with Ctrl-C counts as an interrupt: the terminal is in raw mode
// then, so no signal is delivered.
func ExitCode(err error, interrupted bool) int {
	switch {
	case interrupted, errors.Is(err, ui.ErrCancelled):
		return 130
	case err != nil:
		return 1
	}
	return 0
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// newBuilder returns a provider builder for the global flags and config.
func newBuilder(readOnly bool) *provider.Builder {
	return &provider.Builder{
		Flags:    flags,
		Config:   cfg,
		UI:       out,
		Logger:   log,
		ReadOnly: readOnly,
	}
}

func buildProvider(cmd *cobra.Command, readOnly bool) (*provider.Provider, error) {
	return newBuilder(readOnly).Build(cmd.Context())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&projectDir, "project", ".", "project directory (config, .env and build/)")
	pf.StringVar(&cfgFile, "config", "", "explicit config file (default: <project>/blueprint.config.*)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&plain, "plain", false, "plain output without spinners or interactive pickers")

	pf.BoolVar(&flags.Mainnet, "mainnet", false, "use mainnet")
	pf.BoolVar(&flags.Testnet, "testnet", false, "use testnet")
	pf.StringVar(&flags.Custom, "custom", "", "use a custom network at this endpoint")
	pf.StringVar(&flags.CustomType, "custom-type", "", "network type of the custom endpoint: mainnet, testnet or custom")
	pf.StringVar(&flags.CustomVersion, "custom-version", "", "protocol of the custom endpoint: v2 (default), v4, tonapi or liteclient")
	pf.StringVar(&flags.CustomKey, "custom-key", "", "API key of the custom endpoint (v2 and tonapi only)")
	rootCmd.MarkFlagsMutuallyExclusive("mainnet", "testnet", "custom")

	pf.BoolVar(&flags.TonConnect, "tonconnect", false, "sign with a TonConnect wallet")
	pf.BoolVar(&flags.Deeplink, "deeplink", false, "sign by opening ton:// deep links")
	pf.BoolVar(&flags.Mnemonic, "mnemonic", false, "sign with WALLET_MNEMONIC and WALLET_VERSION")
	rootCmd.MarkFlagsMutuallyExclusive("tonconnect", "deeplink", "mnemonic")

	pf.BoolVar(&flags.Tonscan, "tonscan", false, "link to tonscan.org (default)")
	pf.BoolVar(&flags.Tonviewer, "tonviewer", false, "link to tonviewer.com")
	pf.BoolVar(&flags.Toncx, "toncx", false, "link to ton.cx")
	pf.BoolVar(&flags.Dton, "dton", false, "link to dton.io")
	rootCmd.MarkFlagsMutuallyExclusive("tonscan", "tonviewer", "toncx", "dton")

	rootCmd.AddCommand(
		deployCmd,
		sendCmd,
		stateCmd,
		getCmd,
		txsCmd,
		verifyCmd,
		waitDeployCmd,
		configParamCmd,
	)
}
