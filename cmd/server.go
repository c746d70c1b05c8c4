package cmd

import (
	"github.com/spf13/cobra"

	"ratemyfit/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Rate My Fit HTTP server",
	Long:  `Start the Rate My Fit HTTP server, serving the web UI, upload handling and the voting API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
