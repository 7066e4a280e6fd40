package main

import (
	"github.com/spf13/cobra"

	"portfolio_checker/internal/infrastructure/restapi"
)

func newHealthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe every configured chain and print connectivity as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			return writeJSON(cmd.OutOrStdout(), restapi.HealthResponse{
				Status: "ok",
				Chains: app.portfolio.Health(cmd.Context()),
			})
		},
	}
}
