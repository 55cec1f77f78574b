package cmd

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/serverfarm/farmctl/client"
	"github.com/serverfarm/farmctl/dispatch"
	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
)

var (
	loadtestRequests    int
	loadtestConcurrency int
	loadtestTimeout     time.Duration
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run a load test against every server in the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(numServers, basePort, fleetHost)
		d := dispatch.New(reg)
		c := client.New()

		fmt.Printf("🚀 Starting load test across %d servers\n", reg.Size())
		fmt.Printf("   %d requests per server, concurrency %d\n", loadtestRequests, loadtestConcurrency)

		op := func(ctx context.Context, id int) models.Outcome {
			addr, _ := reg.AddressOf(id)
			return c.Get(ctx, addr.URL()+"/")
		}
		opts := dispatch.ProbeOptions{
			Requests:    loadtestRequests,
			Concurrency: loadtestConcurrency,
			Timeout:     loadtestTimeout,
		}

		results := make([]models.LoadStats, reg.Size())
		var wg sync.WaitGroup
		for i, id := range reg.IDs() {
			wg.Add(1)
			go func(slot, id int) {
				defer wg.Done()
				stats, err := d.Probe(cmd.Context(), id, op, opts)
				if err != nil {
					stats = models.LoadStats{ServerID: id, Requests: loadtestRequests, Failed: loadtestRequests}
				}
				results[slot] = stats
			}(i, id)
		}
		wg.Wait()

		printLoadTestReport(results)
		return nil
	},
}

func printLoadTestReport(results []models.LoadStats) {
	var totalRequests, totalSuccessful, totalFailed int
	for _, r := range results {
		totalRequests += r.Requests
		totalSuccessful += r.Successful
		totalFailed += r.Failed
	}

	fmt.Println("📊 RESULTS")
	fmt.Printf("Total Requests:  %d\n", totalRequests)
	if totalRequests > 0 {
		fmt.Printf("Successful:      %d (%.1f%%)\n", totalSuccessful, float64(totalSuccessful)/float64(totalRequests)*100)
	}
	fmt.Printf("Failed:          %d\n", totalFailed)

	sorted := append([]models.LoadStats(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Latency.MeanMS < sorted[j].Latency.MeanMS })

	top := 5
	if len(sorted) < top {
		top = len(sorted)
	}
	fmt.Println("⚡ Fastest servers:")
	for _, r := range sorted[:top] {
		fmt.Printf("   server-%d: %.2fms avg\n", r.ServerID, r.Latency.MeanMS)
	}
	fmt.Println("🐌 Slowest servers:")
	for i := len(sorted) - 1; i >= len(sorted)-top; i-- {
		fmt.Printf("   server-%d: %.2fms avg\n", sorted[i].ServerID, sorted[i].Latency.MeanMS)
	}

	var failing int
	for _, r := range results {
		if r.Failed > 0 {
			failing++
		}
	}
	if failing > 0 {
		fmt.Printf("⚠️  %d servers had failures\n", failing)
	} else {
		fmt.Println("✅ All servers responded successfully!")
	}
}

func init() {
	loadtestCmd.Flags().IntVar(&loadtestRequests, "requests", 100, "Requests per server")
	loadtestCmd.Flags().IntVar(&loadtestConcurrency, "concurrency", 10, "Concurrent requests per server")
	loadtestCmd.Flags().DurationVar(&loadtestTimeout, "timeout", 10*time.Second, "Per-request timeout")
}
