package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"ratemyfit/server"
)

var rootCmd = &cobra.Command{
	Use:   "ratemyfit",
	Short: "Rate My Fit is a social outfit-rating web application.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Rate My Fit server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
