package main

import (
	"context"
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"portfolio_checker/internal/infrastructure/walletloader"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newCheckCmd(configPath *string) *cobra.Command {
	var (
		chain       string
		walletsFile string
	)

	cmd := &cobra.Command{
		Use:   "check [address...]",
		Short: "Print the portfolio snapshot of one or more addresses as JSON",
		Example: `  portfolio check 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045
  portfolio check 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045 --chain arbitrum
  portfolio check --wallets data/wallets.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			addresses := args
			if walletsFile != "" {
				fromFile, err := walletloader.NewAddressFileLoader(walletsFile, app.log).Addresses()
				if err != nil {
					return err
				}
				addresses = append(addresses, fromFile...)
			}
			if len(addresses) == 0 {
				return errors.New("no address given: pass addresses as arguments or use --wallets")
			}
			return runCheck(cmd.Context(), app, addresses, chain, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "check a single chain instead of all configured chains")
	cmd.Flags().StringVar(&walletsFile, "wallets", "", "file with one address per line")
	return cmd
}

// runCheck prints one snapshot for a single address and a JSON array otherwise.
func runCheck(ctx context.Context, app *application, addresses []string, chain string, out io.Writer) error {
	snapshots := make([]any, 0, len(addresses))
	for _, address := range addresses {
		var (
			snapshot any
			err      error
		)
		if chain != "" {
			snapshot, err = app.portfolio.CheckAddressOnChain(ctx, address, chain)
		} else {
			snapshot, err = app.portfolio.CheckAddress(ctx, address)
		}
		if err != nil {
			return err
		}
		snapshots = append(snapshots, snapshot)
	}

	if len(snapshots) == 1 {
		return writeJSON(out, snapshots[0])
	}
	return writeJSON(out, snapshots)
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
