package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/serverfarm/farmctl/aggregate"
	"github.com/serverfarm/farmctl/client"
	"github.com/serverfarm/farmctl/dispatch"
	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of every server in the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(numServers, basePort, fleetHost)
		d := dispatch.New(reg)
		c := client.New()

		fmt.Printf("🏥 Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Printf("   Checking %d servers...\n", reg.Size())

		op := func(ctx context.Context, id int) models.Outcome {
			addr, _ := reg.AddressOf(id)
			return c.Get(ctx, addr.URL()+"/health")
		}
		batch, err := d.Dispatch(cmd.Context(), reg.IDs(), op, healthTimeout)
		if err != nil {
			return err
		}

		var unhealthy []models.NodeOutcome
		fmt.Println("✅ Healthy servers:")
		for _, entry := range batch {
			status := aggregate.StatusOf(entry.Outcome)
			if status == "" {
				unhealthy = append(unhealthy, entry)
				continue
			}
			fmt.Printf("   server-%d: %s\n", entry.ID, status)
		}
		if len(unhealthy) > 0 {
			fmt.Println("❌ Unreachable servers:")
			for _, entry := range unhealthy {
				fmt.Printf("   server-%d: %s (%s)\n", entry.ID, entry.Outcome.Kind, entry.Outcome.Detail)
			}
		}

		summary := aggregate.ClassifyHealth(batch)
		ok := summary.Healthy + summary.Degraded
		fmt.Printf("Summary: %d/%d responding (%d healthy, %d degraded, %d unhealthy)\n",
			ok, reg.Size(), summary.Healthy, summary.Degraded, summary.Unhealthy)

		if summary.Unhealthy > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Per-server timeout")
}
