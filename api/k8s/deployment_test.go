package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"consensus-bootstrap/api/model"
)

func TestNodeDeploymentNonSeed(t *testing.T) {
	peers := []model.NodeAddr{{ID: "consensus-node-00", Address: "10.0.0.1:3154"}}

	dep, err := NodeDeployment(3, false, peers, "ns1", 3054)
	require.NoError(t, err)

	require.Equal(t, "consensus-node-03", dep.Name)
	require.Equal(t, "ns1", dep.Namespace)
	require.Equal(t, int32(1), *dep.Spec.Replicas)
	require.Equal(t, map[string]string{"app": "consensus-node-03"}, dep.Spec.Selector.MatchLabels)
	require.Equal(t, map[string]string{
		"app":  "consensus-node-03",
		"id":   "consensus-node-03",
		"seed": "false",
	}, dep.Spec.Template.Labels)

	require.Len(t, dep.Spec.Template.Spec.Containers, 1)
	c := dep.Spec.Template.Spec.Containers[0]
	require.Equal(t, "consensus-node-03", c.Name)
	require.Equal(t, NodeImage, c.Image)
	require.Equal(t, corev1.PullNever, c.ImagePullPolicy)
	require.Equal(t, []string{Entrypoint}, c.Command)

	wantArgs, err := model.EncodePeerArgs(peers)
	require.NoError(t, err)
	require.Equal(t, wantArgs, c.Args)
	require.Equal(t, model.GossipStaticOutboundFlag, c.Args[0])

	require.Equal(t, []corev1.ContainerPort{{ContainerPort: 3054}, {ContainerPort: 3154}}, c.Ports)

	for _, probe := range []*corev1.Probe{c.LivenessProbe, c.ReadinessProbe} {
		require.NotNil(t, probe)
		require.NotNil(t, probe.HTTPGet)
		require.Equal(t, "/health", probe.HTTPGet.Path)
		require.Equal(t, int32(3154), probe.HTTPGet.Port.IntVal)
	}
	require.Equal(t, c.LivenessProbe, c.ReadinessProbe)
}

func TestNodeDeploymentSeed(t *testing.T) {
	dep, err := NodeDeployment(0, true, nil, "ns1", 3054)
	require.NoError(t, err)

	c := dep.Spec.Template.Spec.Containers[0]
	require.Empty(t, c.Args)
	require.Equal(t, "true", dep.Spec.Template.Labels["seed"])
}

func TestNodeDeploymentEnv(t *testing.T) {
	dep, err := NodeDeployment(7, true, nil, "ns1", 3054)
	require.NoError(t, err)

	env := dep.Spec.Template.Spec.Containers[0].Env
	require.Len(t, env, 2)

	require.Equal(t, "NODE_ID", env[0].Name)
	require.Equal(t, "consensus-node-07", env[0].Value)

	// PUBLIC_ADDR has no literal value; the kubelet fills it with the pod IP.
	require.Equal(t, "PUBLIC_ADDR", env[1].Name)
	require.Empty(t, env[1].Value)
	require.NotNil(t, env[1].ValueFrom)
	require.Equal(t, "status.podIP", env[1].ValueFrom.FieldRef.FieldPath)
}

func TestNodeDeploymentIndexOutOfRange(t *testing.T) {
	for _, index := range []int{-1, model.MaxNodes} {
		_, err := NodeDeployment(index, true, nil, "ns1", 3054)
		require.Error(t, err, "index %d", index)
	}
}

func TestDeployNodeCreates(t *testing.T) {
	cs := fake.NewClientset()
	ctx := context.Background()

	require.NoError(t, DeployNode(ctx, NewClientFromInterface(cs), 1, true, nil, "ns1", 3054))

	dep, err := cs.AppsV1().Deployments("ns1").Get(ctx, "consensus-node-01", metav1.GetOptions{})
	require.NoError(t, err)
	require.Equal(t, "true", dep.Spec.Template.Labels["seed"])
}

func TestDeployNodeReusesExisting(t *testing.T) {
	existing, err := NodeDeployment(1, true, nil, "ns1", 3054)
	require.NoError(t, err)
	cs := fake.NewClientset(existing)

	require.NoError(t, DeployNode(context.Background(), NewClientFromInterface(cs), 1, true, nil, "ns1", 3054))
	require.Equal(t, 1, countActions(cs, "get", "deployments"))
}

func TestDeployNodeMalformedResponse(t *testing.T) {
	cs := fake.NewClientset()
	cs.PrependReactor("create", "deployments", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, &appsv1.Deployment{}, nil
	})

	err := DeployNode(context.Background(), NewClientFromInterface(cs), 2, false, nil, "ns1", 3054)
	require.ErrorIs(t, err, ErrMalformedResponse)
}
