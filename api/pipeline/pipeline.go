package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"consensus-bootstrap/api/config"
	"consensus-bootstrap/api/discovery"
	"consensus-bootstrap/api/k8s"
	"consensus-bootstrap/api/model"
)

const (
	StepNamespace     = "namespace"
	StepDeploySeeds   = "deploy-seeds"
	StepDiscoverSeeds = "discover-seeds"
	StepDeployNodes   = "deploy-nodes"
)

// Steps lists the bootstrap steps in execution order.
var Steps = []string{StepNamespace, StepDeploySeeds, StepDiscoverSeeds, StepDeployNodes}

type StepStatus string

const (
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
)

// Pipeline bootstraps a consensus cluster: namespace, seed nodes, seed
// discovery, then the remaining nodes pointed at the seeds.
type Pipeline struct {
	Kube   k8s.Platform
	Config *config.Config
	Poller *discovery.SeedPoller
	// OnStep, when set, is called as each step starts and finishes.
	OnStep func(step string, status StepStatus)
}

type Result struct {
	RunID     string
	Namespace string
	Seeds     map[string]string // node id -> pod IP
	Peers     []model.NodeAddr  // dial list handed to non-seed nodes
	Deployed  []string
	Elapsed   time.Duration
}

type step struct {
	name string
	fn   func(ctx context.Context, r *Result) error
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if p.Poller == nil {
		p.Poller = &discovery.SeedPoller{Platform: p.Kube}
	}

	r := &Result{RunID: uuid.NewString(), Namespace: p.Config.Namespace}
	steps := []step{
		{name: StepNamespace, fn: p.namespace},
		{name: StepDeploySeeds, fn: p.deploySeeds},
		{name: StepDiscoverSeeds, fn: p.discoverSeeds},
		{name: StepDeployNodes, fn: p.deployNodes},
	}

	klog.InfoS("Bootstrap started", "run", r.RunID, "namespace", r.Namespace,
		"nodes", p.Config.Nodes, "seeds", p.Config.Seeds)
	start := time.Now()

	for _, s := range steps {
		p.notify(s.name, StatusRunning)
		stepStart := time.Now()
		err := s.fn(ctx, r)
		if err != nil {
			p.notify(s.name, StatusFailed)
			klog.ErrorS(err, "Bootstrap step failed", "run", r.RunID, "step", s.name)
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		p.notify(s.name, StatusCompleted)
		klog.V(2).InfoS("Bootstrap step completed", "run", r.RunID, "step", s.name,
			"durationMs", time.Since(stepStart).Milliseconds())
	}

	r.Elapsed = time.Since(start)
	klog.InfoS("Bootstrap completed", "run", r.RunID, "deployed", len(r.Deployed), "elapsed", r.Elapsed)
	return r, nil
}

func (p *Pipeline) notify(step string, status StepStatus) {
	if p.OnStep != nil {
		p.OnStep(step, status)
	}
}

func (p *Pipeline) namespace(ctx context.Context, r *Result) error {
	return k8s.EnsureNamespace(ctx, p.Kube, r.Namespace)
}

func (p *Pipeline) deploySeeds(ctx context.Context, r *Result) error {
	for i := 0; i < p.Config.Seeds; i++ {
		if err := k8s.DeployNode(ctx, p.Kube, i, true, nil, r.Namespace, p.Config.NodesPort); err != nil {
			return err
		}
		r.Deployed = append(r.Deployed, model.NodeName(i))
	}
	return nil
}

func (p *Pipeline) discoverSeeds(ctx context.Context, r *Result) error {
	seeds, err := p.Poller.Resolve(ctx, p.Config.Seeds, r.Namespace)
	if err != nil {
		return err
	}
	r.Seeds = seeds
	r.Peers = model.PeersFromSeeds(seeds, p.Config.NodesPort)
	return nil
}

func (p *Pipeline) deployNodes(ctx context.Context, r *Result) error {
	for i := p.Config.Seeds; i < p.Config.Nodes; i++ {
		if err := k8s.DeployNode(ctx, p.Kube, i, false, r.Peers, r.Namespace, p.Config.NodesPort); err != nil {
			return err
		}
		r.Deployed = append(r.Deployed, model.NodeName(i))
	}
	return nil
}
