package main

import (
	"learning-path/shared/api"
	"learning-path/shared/monitoring"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the learning path HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}

	server := api.NewServer(a.cfg, gen, a.store, monitoring.NewMonitor(a.log), a.log)
	return server.Run(ctx)
}
