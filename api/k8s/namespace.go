package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

// EnsureNamespace creates the namespace unless it already exists. The check is
// not transactional: a create that loses a race with another invoker is
// treated as reuse.
func EnsureNamespace(ctx context.Context, p Platform, name string) error {
	if name == "" {
		return fmt.Errorf("ensure namespace: empty name")
	}

	existing, err := p.GetNamespace(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Name == "" {
			return fmt.Errorf("namespace %s: name not defined in metadata: %w", name, ErrMalformedResponse)
		}
		klog.InfoS("Namespace already exists", "namespace", existing.Name)
		return nil
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{"name": name},
		},
	}
	created, err := p.CreateNamespace(ctx, ns)
	if err != nil {
		if !IsAlreadyExists(err) {
			return err
		}
		existing, err = p.GetNamespace(ctx, name)
		if err != nil {
			return err
		}
		if existing == nil || existing.Name == "" {
			return fmt.Errorf("namespace %s: reported as existing but not readable: %w", name, ErrMalformedResponse)
		}
		klog.InfoS("Namespace created concurrently, reusing", "namespace", existing.Name)
		return nil
	}
	if created == nil || created.Name == "" {
		return fmt.Errorf("namespace %s: name not defined in metadata: %w", name, ErrMalformedResponse)
	}

	klog.InfoS("Namespace created", "namespace", created.Name)
	return nil
}
