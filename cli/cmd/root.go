package cmd

import (
	goflag "flag"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"consensus-bootstrap/api/config"
	"consensus-bootstrap/api/k8s"
)

var (
	cfg         *config.Config
	namespace   string
	kubeconfig  string
	clusterFile string
)

var rootCmd = &cobra.Command{
	Use:   "consensus-k8s",
	Short: "Bootstrap consensus test clusters on Kubernetes",
	Long: `consensus-k8s provisions a namespace, starts seed nodes, waits for their pods
to come up and starts the remaining nodes pointed at the seeds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if clusterFile == "" {
			clusterFile = cfg.ClusterFile
		}
		if clusterFile != "" {
			if err := cfg.LoadClusterFile(clusterFile); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("namespace") {
			cfg.Namespace = namespace
		}
		if kubeconfig != "" {
			cfg.Kubeconfig = kubeconfig
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "consensus", "Namespace the cluster lives in")
	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (defaults to in-cluster, then ~/.kube/config)")
	rootCmd.PersistentFlags().StringVar(&clusterFile, "cluster-file", "", "YAML file with namespace, nodes, seeds and nodesPort")

	fs := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
}

func kubeClient() (*k8s.Client, error) {
	c, err := k8s.NewClient(cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("connect to cluster: %w", err)
	}
	return c, nil
}
