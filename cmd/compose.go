package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/serverfarm/farmctl/compose"
)

var (
	composeOutput      string
	composeControlPort int
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Generate a docker-compose file for the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Generating %s with %d servers starting at port %d...\n", composeOutput, numServers, basePort)

		f := compose.Generate(numServers, basePort, composeControlPort)
		if err := compose.Write(composeOutput, f); err != nil {
			return err
		}

		fmt.Printf("✅ Generated %s successfully!\n", composeOutput)
		fmt.Printf("   Servers: %d, port range: %d - %d\n", numServers, basePort, basePort+numServers-1)
		fmt.Println("To start the farm: docker-compose up -d --build")
		return nil
	},
}

func init() {
	composeCmd.Flags().StringVar(&composeOutput, "output", "docker-compose.yml", "Output path")
	composeCmd.Flags().IntVar(&composeControlPort, "control-port", 8000, "Control plane port")
}
