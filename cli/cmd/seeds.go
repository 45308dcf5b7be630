package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"consensus-bootstrap/api/discovery"
	"consensus-bootstrap/api/model"
	"consensus-bootstrap/cli/style"
)

var (
	seedsCount    int
	seedsAttempts int
	seedsInterval time.Duration
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Wait for the seed pods to run and print their addresses",
	RunE:  runSeeds,
}

func init() {
	seedsCmd.Flags().IntVar(&seedsCount, "count", 0, "Expected number of seed nodes (defaults to config)")
	seedsCmd.Flags().IntVar(&seedsAttempts, "attempts", discovery.DefaultAttempts, "Polling attempts before giving up")
	seedsCmd.Flags().DurationVar(&seedsInterval, "interval", discovery.DefaultInterval, "Wait between polling attempts")
	rootCmd.AddCommand(seedsCmd)
}

func runSeeds(cmd *cobra.Command, args []string) error {
	expected := cfg.Seeds
	if seedsCount > 0 {
		expected = seedsCount
	}

	kube, err := kubeClient()
	if err != nil {
		return err
	}

	poller := &discovery.SeedPoller{Platform: kube, Attempts: seedsAttempts, Interval: seedsInterval}
	seeds, err := poller.Resolve(context.Background(), expected, cfg.Namespace)
	if err != nil {
		return fmt.Errorf("discover seeds: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOD IP\tPEER ADDRESS")
	for _, peer := range model.PeersFromSeeds(seeds, cfg.NodesPort) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", peer.ID, seeds[peer.ID], style.StepDone.Render(peer.Address))
	}
	w.Flush()
	return nil
}
