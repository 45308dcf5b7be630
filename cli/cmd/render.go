package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"consensus-bootstrap/api/k8s"
	"consensus-bootstrap/api/model"
)

var (
	renderSeed  bool
	renderPeers []string
)

var renderCmd = &cobra.Command{
	Use:   "render <index>",
	Short: "Print the Deployment a node would be created with",
	Long: `Print the Deployment manifest for the node at <index> without talking to the cluster.

Peers are given as id=address, in dial order:

  consensus-k8s render 3 --peer consensus-node-00=10.0.0.1:3054`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderSeed, "seed", false, "Render the node as a seed")
	renderCmd.Flags().StringArrayVar(&renderPeers, "peer", nil, "Peer as id=address (repeatable)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[0], err)
	}
	peers, err := parsePeers(renderPeers)
	if err != nil {
		return err
	}
	if renderSeed && len(peers) > 0 {
		return fmt.Errorf("seed nodes start without peers")
	}

	dep, err := k8s.NodeDeployment(index, renderSeed, peers, cfg.Namespace, cfg.NodesPort)
	if err != nil {
		return err
	}
	dep.APIVersion = "apps/v1"
	dep.Kind = "Deployment"

	out, err := yaml.Marshal(dep)
	if err != nil {
		return fmt.Errorf("marshal deployment: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func parsePeers(values []string) ([]model.NodeAddr, error) {
	peers := make([]model.NodeAddr, 0, len(values))
	for _, v := range values {
		id, addr, ok := strings.Cut(v, "=")
		if !ok || id == "" || addr == "" {
			return nil, fmt.Errorf("invalid peer %q, want id=address", v)
		}
		peers = append(peers, model.NodeAddr{ID: id, Address: addr})
	}
	return peers, nil
}
