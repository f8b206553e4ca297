package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillgate/pkg/api"
	"github.com/jingkaihe/skillgate/pkg/presenter"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP inspection API",
	Long: `Start a local HTTP server exposing the engine: skill listing and
inspection, queries with activation tokens, authorization checks, and
reloads.

Examples:
  skillgate serve
  skillgate serve --host 0.0.0.0 --port 8712`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		eng, source, _, err := setupEngine(ctx)
		if err != nil {
			presenter.Error(err, "failed to set up engine")
			os.Exit(1)
		}

		server, err := api.NewServer(eng, source, &api.ServerConfig{Host: host, Port: port})
		if err != nil {
			presenter.Error(err, "failed to create server")
			os.Exit(1)
		}

		if err := server.Start(ctx); err != nil {
			presenter.Error(err, "server stopped")
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Host interface to bind")
	serveCmd.Flags().Int("port", 8712, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
