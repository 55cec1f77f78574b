package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/serverfarm/farmctl/server"
)

var (
	nodeID   int
	nodePort int
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run one simulated server instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flags win; environment covers the compose/container case.
		id := nodeID
		if id == 0 {
			if raw := os.Getenv("SERVER_ID"); raw != "" {
				// SERVER_ID is "server-<n>" inside containers
				fmt.Sscanf(raw, "server-%d", &id)
			}
		}
		if id == 0 {
			id = 1
		}

		port := nodePort
		if port == 0 {
			if raw := os.Getenv("SERVER_PORT"); raw != "" {
				if v, err := strconv.Atoi(raw); err == nil {
					port = v
				}
			}
		}
		if port == 0 {
			port = basePort + id - 1
		}

		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}

		node := server.NewNodeServer(fmt.Sprintf("server-%d", id), port, hostname)
		return node.Start()
	},
}

func init() {
	nodeCmd.Flags().IntVar(&nodeID, "id", 0, "Server id (defaults to SERVER_ID)")
	nodeCmd.Flags().IntVar(&nodePort, "port", 0, "Listen port (defaults to SERVER_PORT, then base-port + id - 1)")
}
