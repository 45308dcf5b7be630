package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that would override defaults
	os.Unsetenv("CONSENSUS_NAMESPACE")
	os.Unsetenv("CONSENSUS_NODES")
	os.Unsetenv("CONSENSUS_SEEDS")
	os.Unsetenv("CONSENSUS_NODES_PORT")
	os.Unsetenv("CONSENSUS_CLUSTER_FILE")

	cfg := Load()

	if cfg.Namespace != "consensus" {
		t.Errorf("Namespace = %q, want consensus", cfg.Namespace)
	}
	if cfg.Nodes != 4 {
		t.Errorf("Nodes = %d, want 4", cfg.Nodes)
	}
	if cfg.Seeds != 1 {
		t.Errorf("Seeds = %d, want 1", cfg.Seeds)
	}
	if cfg.NodesPort != 3054 {
		t.Errorf("NodesPort = %d, want 3054", cfg.NodesPort)
	}
	if cfg.ClusterFile != "" {
		t.Errorf("ClusterFile = %q, want empty", cfg.ClusterFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONSENSUS_NAMESPACE", "zk-test")
	t.Setenv("CONSENSUS_NODES", "10")
	t.Setenv("CONSENSUS_SEEDS", "3")
	t.Setenv("CONSENSUS_NODES_PORT", "4000")
	t.Setenv("KUBECONFIG", "/tmp/kubeconfig")

	cfg := Load()

	if cfg.Namespace != "zk-test" {
		t.Errorf("Namespace = %q, want zk-test", cfg.Namespace)
	}
	if cfg.Nodes != 10 {
		t.Errorf("Nodes = %d, want 10", cfg.Nodes)
	}
	if cfg.Seeds != 3 {
		t.Errorf("Seeds = %d, want 3", cfg.Seeds)
	}
	if cfg.NodesPort != 4000 {
		t.Errorf("NodesPort = %d, want 4000", cfg.NodesPort)
	}
	if cfg.Kubeconfig != "/tmp/kubeconfig" {
		t.Errorf("Kubeconfig = %q", cfg.Kubeconfig)
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("CONSENSUS_NODES", "many")

	if cfg := Load(); cfg.Nodes != 4 {
		t.Errorf("Nodes = %d, want fallback 4", cfg.Nodes)
	}
}

func TestLoadClusterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	yaml := `namespace: consensus-e2e
nodes: 7
seeds: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Namespace: "consensus", Nodes: 4, Seeds: 1, NodesPort: 3054}
	if err := cfg.LoadClusterFile(path); err != nil {
		t.Fatalf("LoadClusterFile: %v", err)
	}

	if cfg.Namespace != "consensus-e2e" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.Nodes != 7 || cfg.Seeds != 2 {
		t.Errorf("Nodes/Seeds = %d/%d, want 7/2", cfg.Nodes, cfg.Seeds)
	}
	// Not in the file, keeps the previous value.
	if cfg.NodesPort != 3054 {
		t.Errorf("NodesPort = %d, want 3054", cfg.NodesPort)
	}
	if cfg.ClusterFile != path {
		t.Errorf("ClusterFile = %q, want %q", cfg.ClusterFile, path)
	}
}

func TestLoadClusterFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	if err := os.WriteFile(path, []byte("nodes: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	if err := cfg.LoadClusterFile(path); err == nil {
		t.Error("expected parse error")
	}
	if err := cfg.LoadClusterFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Namespace: "consensus", Nodes: 4, Seeds: 1, NodesPort: 3054}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"all seeds", func(c *Config) { c.Seeds = 4 }, false},
		{"max nodes", func(c *Config) { c.Nodes = 100 }, false},
		{"uppercase namespace", func(c *Config) { c.Namespace = "Consensus" }, true},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, true},
		{"no nodes", func(c *Config) { c.Nodes = 0 }, true},
		{"past ceiling", func(c *Config) { c.Nodes = 101 }, true},
		{"no seeds", func(c *Config) { c.Seeds = 0 }, true},
		{"more seeds than nodes", func(c *Config) { c.Seeds = 5 }, true},
		{"bad port", func(c *Config) { c.NodesPort = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
