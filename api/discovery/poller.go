package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"

	"consensus-bootstrap/api/k8s"
)

const (
	DefaultAttempts = 15
	DefaultInterval = 1 * time.Second

	// SeedSelector matches the pods of seed-role nodes.
	SeedSelector = k8s.LabelSeed + "=true"
)

// ErrPodsNotReady is returned when the seed pods did not all reach the
// Running phase within the attempt budget.
var ErrPodsNotReady = errors.New("pods are not ready")

// SeedPoller waits for the seed pods of a cluster to be scheduled and running,
// then reads their pod IPs.
type SeedPoller struct {
	Platform k8s.Platform
	Attempts int
	Interval time.Duration
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Resolve returns node id -> pod IP for exactly expected seed pods in
// namespace. A pod that is Running but has no id label or pod IP fails the
// call immediately rather than being retried.
func (p *SeedPoller) Resolve(ctx context.Context, expected int, namespace string) (map[string]string, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var (
		pods    []corev1.Pod
		lastErr error
		ready   bool
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		pods, lastErr = p.Platform.ListPods(ctx, namespace, SeedSelector)
		if lastErr == nil {
			lastErr = checkReady(pods, expected)
		}
		if lastErr == nil {
			ready = true
			break
		}
		klog.V(2).InfoS("Seed pods not ready", "namespace", namespace, "attempt", attempt, "maxAttempts", attempts, "reason", lastErr.Error())

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
	if !ready {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrPodsNotReady, attempts, lastErr)
	}

	seeds := make(map[string]string, len(pods))
	for _, pod := range pods {
		id, addr, err := podAddr(pod)
		if err != nil {
			return nil, err
		}
		if _, dup := seeds[id]; dup {
			return nil, fmt.Errorf("pod %s: duplicate node id %q: %w", pod.Name, id, k8s.ErrMalformedResponse)
		}
		seeds[id] = addr
	}

	klog.InfoS("Seed nodes discovered", "namespace", namespace, "count", len(seeds))
	return seeds, nil
}

func checkReady(pods []corev1.Pod, expected int) error {
	if len(pods) != expected {
		return fmt.Errorf("found %d seed pods, want %d", len(pods), expected)
	}
	for i := range pods {
		if !isPodRunning(&pods[i]) {
			return fmt.Errorf("pod %s is %s", pods[i].Name, phaseOf(&pods[i]))
		}
	}
	return nil
}

func isPodRunning(pod *corev1.Pod) bool {
	return pod.Status.Phase == corev1.PodRunning
}

func phaseOf(pod *corev1.Pod) string {
	if pod.Status.Phase == "" {
		return "without status"
	}
	return string(pod.Status.Phase)
}

func podAddr(pod corev1.Pod) (string, string, error) {
	id, ok := pod.Labels[k8s.LabelID]
	if !ok || id == "" {
		return "", "", fmt.Errorf("pod %s: %s label not present: %w", pod.Name, k8s.LabelID, k8s.ErrMalformedResponse)
	}
	if pod.Status.PodIP == "" {
		return "", "", fmt.Errorf("pod %s: pod IP address not present: %w", pod.Name, k8s.ErrMalformedResponse)
	}
	return id, pod.Status.PodIP, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
