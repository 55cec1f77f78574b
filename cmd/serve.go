package cmd

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/serverfarm/farmctl/registry"
	"github.com/serverfarm/farmctl/runtime"
	"github.com/serverfarm/farmctl/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control plane API",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(numServers, basePort, fleetHost)

		// Lifecycle actions need Docker; without it the read-only HTTP
		// paths still work, so a missing daemon is a warning, not fatal.
		var rt runtime.Runtime
		docker := runtime.NewDockerCLI()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if docker.Available(ctx) {
			log.Printf("✅ Connected to Docker daemon")
			rt = docker
		} else {
			log.Printf("⚠️  Could not connect to Docker daemon, container management is disabled")
		}

		api := server.NewAPIServer(reg, rt)
		return api.Start(servePort)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Port for the control plane API")
}
