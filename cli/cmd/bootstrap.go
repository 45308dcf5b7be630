package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"consensus-bootstrap/api/pipeline"
	"consensus-bootstrap/cli/style"
)

var (
	bootstrapNodes int
	bootstrapSeeds int
	bootstrapPort  int
	bootstrapPlain bool
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the namespace, start seed nodes, then start the rest",
	RunE:  runBootstrap,
}

func init() {
	bootstrapCmd.Flags().IntVar(&bootstrapNodes, "nodes", 0, "Total number of nodes (overrides config)")
	bootstrapCmd.Flags().IntVar(&bootstrapSeeds, "seeds", 0, "Number of seed nodes (overrides config)")
	bootstrapCmd.Flags().IntVar(&bootstrapPort, "nodes-port", 0, "Consensus port of every node (overrides config)")
	bootstrapCmd.Flags().BoolVar(&bootstrapPlain, "plain", false, "Log progress instead of the interactive view")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if bootstrapNodes > 0 {
		cfg.Nodes = bootstrapNodes
	}
	if bootstrapSeeds > 0 {
		cfg.Seeds = bootstrapSeeds
	}
	if bootstrapPort > 0 {
		cfg.NodesPort = bootstrapPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	kube, err := kubeClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pipeline.Pipeline{Kube: kube, Config: cfg}

	if bootstrapPlain {
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		printBootstrapResult(res)
		return nil
	}

	// The step view owns the terminal; klog output would tear it.
	klog.LogToStderr(false)
	klog.SetOutput(io.Discard)

	m := newBootstrapModel(ctx, p)
	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}

	bm := finalModel.(bootstrapModel)
	if bm.failed {
		return fmt.Errorf("bootstrap failed")
	}
	if bm.status == "running" {
		return fmt.Errorf("bootstrap interrupted")
	}
	printBootstrapResult(bm.result)
	return nil
}

func printBootstrapResult(res *pipeline.Result) {
	if res == nil {
		return
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", style.Key.Render("Namespace"), style.Val.Render(res.Namespace))
	fmt.Printf("  %s %s\n", style.Key.Render("Run"), style.DimText.Render(res.RunID))
	fmt.Printf("  %s %s\n", style.Key.Render("Deployed"), style.Val.Render(strings.Join(res.Deployed, ", ")))
	for _, peer := range res.Peers {
		fmt.Printf("  %s %s %s\n", style.Key.Render("Seed"), style.RoleBadge.Render(peer.ID), style.Val.Render(peer.Address))
	}
	fmt.Println()
}

// --- Messages ---

type bootstrapStarted struct{ ch chan tea.Msg }
type bootstrapStepUpdate struct {
	step   string
	status string
}
type bootstrapCompleted struct{ result *pipeline.Result }
type bootstrapFailed struct{ err string }

// --- Model ---

type stepState struct {
	name   string
	status string // "pending" | "running" | "completed" | "failed"
}

type bootstrapModel struct {
	ctx       context.Context
	pipeline  *pipeline.Pipeline
	spinner   spinner.Model
	steps     []stepState
	status    string // "running" | "completed" | "failed"
	errMsg    string
	failed    bool
	result    *pipeline.Result
	startTime time.Time
	eventCh   chan tea.Msg
}

func newBootstrapModel(ctx context.Context, p *pipeline.Pipeline) bootstrapModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.Primary)

	steps := make([]stepState, len(pipeline.Steps))
	for i, n := range pipeline.Steps {
		steps[i] = stepState{name: n, status: "pending"}
	}

	return bootstrapModel{
		ctx:       ctx,
		pipeline:  p,
		spinner:   s,
		steps:     steps,
		status:    "running",
		startTime: time.Now(),
	}
}

func (m bootstrapModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		runBootstrapSteps(m.ctx, m.pipeline),
	)
}

func (m bootstrapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapStarted:
		m.eventCh = msg.ch
		return m, waitForBootstrapEvent(m.eventCh)

	case bootstrapStepUpdate:
		for i := range m.steps {
			if m.steps[i].name == msg.step {
				m.steps[i].status = msg.status
				break
			}
		}
		return m, waitForBootstrapEvent(m.eventCh)

	case bootstrapCompleted:
		m.status = "completed"
		m.result = msg.result
		return m, tea.Quit

	case bootstrapFailed:
		m.status = "failed"
		m.errMsg = msg.err
		m.failed = true
		return m, tea.Quit
	}

	return m, nil
}

func (m bootstrapModel) View() string {
	var b strings.Builder

	b.WriteString(style.Banner.Render("CLUSTER BOOTSTRAP"))
	b.WriteString("\n")

	cfg := m.pipeline.Config
	b.WriteString(style.Key.Render("Namespace"))
	b.WriteString(style.Bold.Render(cfg.Namespace))
	b.WriteString("\n")
	b.WriteString(style.Key.Render("Nodes"))
	b.WriteString(style.Bold.Render(fmt.Sprintf("%d", cfg.Nodes)))
	b.WriteString(style.DimText.Render(fmt.Sprintf("  (%d seed)", cfg.Seeds)))
	b.WriteString("\n\n")

	for _, step := range m.steps {
		name := padRight(step.name, 20)

		switch step.status {
		case "pending":
			b.WriteString(fmt.Sprintf("  %s %s\n", style.DimText.Render(name), style.DimText.Render("waiting")))
		case "running":
			b.WriteString(fmt.Sprintf("  %s %s %s\n", style.StepRunning.Render(name), m.spinner.View(), style.StepRunning.Render("running")))
		case "completed":
			b.WriteString(fmt.Sprintf("  %s %s\n", style.StepDone.Render(name), style.StepDone.Render("done")))
		case "failed":
			b.WriteString(fmt.Sprintf("  %s %s\n", style.StepFailed.Render(name), style.StepFailed.Render("failed")))
		}
	}

	b.WriteString("\n")

	elapsed := time.Since(m.startTime).Round(time.Second)

	switch m.status {
	case "running":
		b.WriteString(m.spinner.View() + style.DimText.Render(fmt.Sprintf(" Bootstrapping cluster... (%s)", elapsed)))
	case "completed":
		b.WriteString(style.SuccessBox.Render(fmt.Sprintf("Cluster bootstrapped in %s", elapsed)))
	case "failed":
		msg := "Bootstrap failed"
		if m.errMsg != "" {
			msg = fmt.Sprintf("Bootstrap failed: %s", m.errMsg)
		}
		b.WriteString(style.ErrorBox.Render(msg))
	}

	b.WriteString("\n")
	return b.String()
}

// --- Commands ---

func runBootstrapSteps(ctx context.Context, p *pipeline.Pipeline) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan tea.Msg, 32)

		go func() {
			defer close(ch)
			p.OnStep = func(step string, status pipeline.StepStatus) {
				ch <- bootstrapStepUpdate{step: step, status: string(status)}
			}
			res, err := p.Run(ctx)
			if err != nil {
				ch <- bootstrapFailed{err: err.Error()}
				return
			}
			ch <- bootstrapCompleted{result: res}
		}()

		return bootstrapStarted{ch: ch}
	}
}

func waitForBootstrapEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return bootstrapFailed{err: "pipeline stopped without a result"}
		}
		return msg
	}
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
