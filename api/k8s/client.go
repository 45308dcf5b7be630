package k8s

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ErrMalformedResponse marks an object returned by the API server that lacks a
// field this package relies on.
var ErrMalformedResponse = errors.New("malformed response")

// PlatformError is a failure talking to the API server.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string { return fmt.Sprintf("k8s %s: %v", e.Op, e.Err) }
func (e *PlatformError) Unwrap() error { return e.Err }

func IsPlatformError(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe)
}

// Platform is the subset of the API server the bootstrap uses: get, create and
// list over namespaces, deployments and pods.
type Platform interface {
	// GetNamespace returns nil, nil when the namespace does not exist.
	GetNamespace(ctx context.Context, name string) (*corev1.Namespace, error)
	CreateNamespace(ctx context.Context, ns *corev1.Namespace) (*corev1.Namespace, error)
	GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error)
	CreateDeployment(ctx context.Context, dep *appsv1.Deployment) (*appsv1.Deployment, error)
	ListPods(ctx context.Context, namespace, selector string) ([]corev1.Pod, error)
}

type Client struct {
	cs kubernetes.Interface
}

var _ Platform = (*Client)(nil)

// NewClient uses the in-cluster config when running inside a pod and falls
// back to the given kubeconfig (or ~/.kube/config when empty).
func NewClient(kubeconfig string) (*Client, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		if kubeconfig == "" {
			kubeconfig = filepath.Join(os.Getenv("HOME"), ".kube", "config")
		}
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("k8s config: %w", err)
		}
	}
	cs, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("k8s clientset: %w", err)
	}
	return &Client{cs: cs}, nil
}

// NewClientFromInterface wraps an existing clientset, e.g. client-go's fake.
func NewClientFromInterface(cs kubernetes.Interface) *Client {
	return &Client{cs: cs}
}

func (c *Client) GetNamespace(ctx context.Context, name string) (*corev1.Namespace, error) {
	ns, err := c.cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, &PlatformError{Op: "get namespace " + name, Err: err}
	}
	return ns, nil
}

func (c *Client) CreateNamespace(ctx context.Context, ns *corev1.Namespace) (*corev1.Namespace, error) {
	created, err := c.cs.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		return nil, &PlatformError{Op: "create namespace " + ns.Name, Err: err}
	}
	return created, nil
}

func (c *Client) GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	dep, err := c.cs.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, &PlatformError{Op: "get deployment " + name, Err: err}
	}
	return dep, nil
}

func (c *Client) CreateDeployment(ctx context.Context, dep *appsv1.Deployment) (*appsv1.Deployment, error) {
	created, err := c.cs.AppsV1().Deployments(dep.Namespace).Create(ctx, dep, metav1.CreateOptions{})
	if err != nil {
		return nil, &PlatformError{Op: "create deployment " + dep.Name, Err: err}
	}
	return created, nil
}

func (c *Client) ListPods(ctx context.Context, namespace, selector string) ([]corev1.Pod, error) {
	pods, err := c.cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, &PlatformError{Op: "list pods " + selector, Err: err}
	}
	return pods.Items, nil
}

func IsAlreadyExists(err error) bool {
	return k8serrors.IsAlreadyExists(err)
}

func IsNotFound(err error) bool {
	return k8serrors.IsNotFound(err)
}

func ptr[T any](v T) *T { return &v }
