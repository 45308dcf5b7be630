package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation"

	"consensus-bootstrap/api/model"
)

type Config struct {
	Namespace   string `yaml:"namespace"`
	Nodes       int    `yaml:"nodes"`     // total nodes, seeds included
	Seeds       int    `yaml:"seeds"`     // nodes started without peers
	NodesPort   int    `yaml:"nodesPort"` // primary consensus port of every node
	Kubeconfig  string `yaml:"-"`         // empty means in-cluster, then ~/.kube/config
	ClusterFile string `yaml:"-"`         // optional YAML overlay
}

func Load() *Config {
	return &Config{
		Namespace:   envOr("CONSENSUS_NAMESPACE", "consensus"),
		Nodes:       envInt("CONSENSUS_NODES", 4),
		Seeds:       envInt("CONSENSUS_SEEDS", 1),
		NodesPort:   envInt("CONSENSUS_NODES_PORT", 3054),
		Kubeconfig:  os.Getenv("KUBECONFIG"),
		ClusterFile: os.Getenv("CONSENSUS_CLUSTER_FILE"),
	}
}

// LoadClusterFile overlays the fields set in a cluster YAML file onto c.
func (c *Config) LoadClusterFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cluster file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse cluster file %s: %w", path, err)
	}
	if file.Namespace != "" {
		c.Namespace = file.Namespace
	}
	if file.Nodes != 0 {
		c.Nodes = file.Nodes
	}
	if file.Seeds != 0 {
		c.Seeds = file.Seeds
	}
	if file.NodesPort != 0 {
		c.NodesPort = file.NodesPort
	}
	c.ClusterFile = path
	return nil
}

func (c *Config) Validate() error {
	if errs := validation.IsDNS1123Label(c.Namespace); len(errs) > 0 {
		return fmt.Errorf("namespace %q: %s", c.Namespace, strings.Join(errs, "; "))
	}
	if c.Nodes < 1 || c.Nodes > model.MaxNodes {
		return fmt.Errorf("nodes = %d, must be between 1 and %d", c.Nodes, model.MaxNodes)
	}
	if c.Seeds < 1 || c.Seeds > c.Nodes {
		return fmt.Errorf("seeds = %d, must be between 1 and nodes (%d)", c.Seeds, c.Nodes)
	}
	if c.NodesPort < 1 || c.NodesPort > 65535 {
		return fmt.Errorf("nodes port = %d, out of range", c.NodesPort)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
