package k8s

import (
	"context"
	"fmt"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/klog/v2"

	"consensus-bootstrap/api/model"
)

const (
	NodeImage  = "consensus-node"
	Entrypoint = "./k8s_entrypoint.sh"
	HealthPort = 3154
	HealthPath = "/health"

	LabelApp  = "app"
	LabelID   = "id"
	LabelSeed = "seed"
)

// NodeDeployment builds the single-replica Deployment for the node at index.
// Non-seed nodes receive the peers they dial on start through their args.
func NodeDeployment(index int, seed bool, peers []model.NodeAddr, namespace string, nodePort int) (*appsv1.Deployment, error) {
	if !model.ValidIndex(index) {
		return nil, fmt.Errorf("node index %d out of range [0, %d)", index, model.MaxNodes)
	}
	args, err := model.EncodePeerArgs(peers)
	if err != nil {
		return nil, err
	}
	name := model.NodeName(index)

	probe := func() *corev1.Probe {
		return &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{
					Path: HealthPath,
					Port: intstr.FromInt32(HealthPort),
				},
			},
		}
	}

	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr(int32(1)),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{LabelApp: name},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{
						LabelApp:  name,
						LabelID:   name,
						LabelSeed: strconv.FormatBool(seed),
					},
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:            name,
						Image:           NodeImage,
						ImagePullPolicy: corev1.PullNever,
						Command:         []string{Entrypoint},
						Args:            args,
						Ports: []corev1.ContainerPort{
							{ContainerPort: int32(nodePort)},
							{ContainerPort: HealthPort},
						},
						Env: []corev1.EnvVar{
							{Name: "NODE_ID", Value: name},
							{
								Name: "PUBLIC_ADDR",
								ValueFrom: &corev1.EnvVarSource{
									FieldRef: &corev1.ObjectFieldSelector{FieldPath: "status.podIP"},
								},
							},
						},
						LivenessProbe:  probe(),
						ReadinessProbe: probe(),
					}},
				},
			},
		},
	}
	return dep, nil
}

// DeployNode builds and submits the Deployment for one node. A Deployment
// left behind by an earlier run is reused as-is.
func DeployNode(ctx context.Context, p Platform, index int, seed bool, peers []model.NodeAddr, namespace string, nodePort int) error {
	dep, err := NodeDeployment(index, seed, peers, namespace, nodePort)
	if err != nil {
		return err
	}

	created, err := p.CreateDeployment(ctx, dep)
	if err != nil {
		if !IsAlreadyExists(err) {
			return err
		}
		existing, err := p.GetDeployment(ctx, namespace, dep.Name)
		if err != nil {
			return err
		}
		if existing == nil || existing.Name == "" {
			return fmt.Errorf("deployment %s: reported as existing but not readable: %w", dep.Name, ErrMalformedResponse)
		}
		klog.InfoS("Deployment already exists", "deployment", existing.Name, "namespace", namespace)
		return nil
	}
	if created == nil || created.Name == "" {
		return fmt.Errorf("deployment %s: name not defined in metadata: %w", dep.Name, ErrMalformedResponse)
	}

	klog.InfoS("Deployment created", "deployment", created.Name, "namespace", namespace, "seed", seed, "peers", len(peers))
	return nil
}
