package cmd

import (
	"github.com/spf13/cobra"
)

var (
	numServers int
	basePort   int
	fleetHost  string
)

var rootCmd = &cobra.Command{
	Use:   "farmctl",
	Short: "farmctl is the control plane for a farm of server instances",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVar(&numServers, "servers", 50, "Number of servers in the fleet")
	rootCmd.PersistentFlags().IntVar(&basePort, "base-port", 8001, "Host port of server 1; server i listens on base-port + i - 1")
	rootCmd.PersistentFlags().StringVar(&fleetHost, "host", "localhost", "Host the server instances are reachable on")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loadtestCmd)
	rootCmd.AddCommand(composeCmd)
}
