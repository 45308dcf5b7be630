package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"consensus-bootstrap/api/k8s"
	"consensus-bootstrap/cli/style"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the consensus node pods in the namespace",
	Aliases: []string{"s", "ls"},
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	kube, err := kubeClient()
	if err != nil {
		return err
	}

	// Every node pod carries the seed label, whatever its value.
	pods, err := kube.ListPods(context.Background(), cfg.Namespace, k8s.LabelSeed)
	if err != nil {
		return fmt.Errorf("list pods: %w", err)
	}

	if len(pods) == 0 {
		fmt.Println(style.DimText.Render("No consensus nodes in " + cfg.Namespace + ". Run 'consensus-k8s bootstrap' to start a cluster."))
		return nil
	}

	sort.Slice(pods, func(i, j int) bool {
		return pods[i].Labels[k8s.LabelID] < pods[j].Labels[k8s.LabelID]
	})

	fmt.Println(style.Banner.Render("CONSENSUS NODES") + style.Subtitle.Render(fmt.Sprintf("  %s, %d pod(s)", cfg.Namespace, len(pods))))

	header := fmt.Sprintf("  %-2s  %-20s %-6s %-10s %-7s %s", "", "NODE", "SEED", "PHASE", "READY", "POD IP")
	fmt.Println(style.TableHeader.Render(header))

	for _, pod := range pods {
		printPodRow(pod)
	}
	fmt.Println()
	return nil
}

func printPodRow(pod corev1.Pod) {
	ready := podReady(pod)
	dot := style.StatusDot(ready)
	if pod.Status.Phase == corev1.PodRunning && !ready {
		// Running but not yet passing its health probe.
		dot = style.DotWarning
	}

	id := pod.Labels[k8s.LabelID]
	if id == "" {
		id = pod.Name
	}

	seed := padRight(pod.Labels[k8s.LabelSeed], 6)
	if pod.Labels[k8s.LabelSeed] == "true" {
		seed = style.RoleBadge.Render(seed)
	}

	ip := pod.Status.PodIP
	if ip == "" {
		ip = "—"
	}

	fmt.Printf("  %s  %s %s %-10s %-7s %s\n",
		dot,
		style.Bold.Render(padRight(id, 20)),
		seed,
		string(pod.Status.Phase),
		fmt.Sprintf("%v", ready),
		style.DimText.Render(ip),
	)
}

func podReady(pod corev1.Pod) bool {
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}
