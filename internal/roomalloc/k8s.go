package roomalloc

import (
	"context"
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

const (
	roomImage = "docker.io/bomberman/room:latest"
	roomPort  = 5000
)

// K8sAllocator provisions room workers as Kubernetes Pod+Service pairs,
// the direct analogue of the original K8sRoomManager.
type K8sAllocator struct {
	hubIndex        int
	namespace       string
	externalAddress string
	hubAPIURL       string
	core            corev1client
	onRoomActivated func(*clusterstate.Room)

	mu   sync.Mutex
	pool map[string]*clusterstate.Room
	next int
}

// corev1client is the narrow slice of kubernetes.Interface this package
// actually exercises, kept as an interface so tests can fake it.
type corev1client interface {
	CreatePod(ctx context.Context, namespace string, pod *corev1.Pod) error
	CreateService(ctx context.Context, namespace string, svc *corev1.Service) (int32, error)
	DeletePod(ctx context.Context, namespace, name string) error
	DeleteService(ctx context.Context, namespace, name string) error
}

type realCoreV1Client struct {
	clientset *kubernetes.Clientset
}

func (c *realCoreV1Client) CreatePod(ctx context.Context, namespace string, pod *corev1.Pod) error {
	_, err := c.clientset.CoreV1().Pods(namespace).Create(ctx, pod, metav1.CreateOptions{})
	return err
}

func (c *realCoreV1Client) CreateService(ctx context.Context, namespace string, svc *corev1.Service) (int32, error) {
	created, err := c.clientset.CoreV1().Services(namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err != nil {
		return 0, err
	}
	if len(created.Spec.Ports) == 0 {
		return 0, fmt.Errorf("service %s created without ports", svc.Name)
	}
	return created.Spec.Ports[0].NodePort, nil
}

func (c *realCoreV1Client) DeletePod(ctx context.Context, namespace, name string) error {
	err := c.clientset.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

func (c *realCoreV1Client) DeleteService(ctx context.Context, namespace, name string) error {
	err := c.clientset.CoreV1().Services(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// NewK8sAllocator builds a K8sAllocator, loading in-cluster config first
// and falling back to the local kubeconfig — same fallback order as the
// a room manager's incluster-then-kubeconfig attempt.
func NewK8sAllocator(hubIndex int, namespace, externalAddress, hubAPIURL string, onRoomActivated func(*clusterstate.Room)) (*K8sAllocator, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := clientcmd.NewDefaultClientConfigLoadingRules().GetDefaultFilename()
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("roomalloc: no in-cluster config and no kubeconfig: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("roomalloc: failed to build kubernetes clientset: %w", err)
	}

	return &K8sAllocator{
		hubIndex:        hubIndex,
		namespace:       namespace,
		externalAddress: externalAddress,
		hubAPIURL:       hubAPIURL,
		core:            &realCoreV1Client{clientset: clientset},
		onRoomActivated: onRoomActivated,
		pool:            make(map[string]*clusterstate.Room),
	}, nil
}

func (a *K8sAllocator) craftRoomID(index int) string {
	return fmt.Sprintf("hub%d-%d", a.hubIndex, index)
}

func (a *K8sAllocator) InitializePool() error {
	// One room per hub, matching the original K8s room manager's
	// starting pool size.
	room, err := a.createRoom(0)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.pool[room.RoomID] = room
	a.next = 0
	a.mu.Unlock()
	return nil
}

// createRoom provisions the Pod+Service pair for a room. It does not
// touch a.pool and so does not require a.mu.
func (a *K8sAllocator) createRoom(index int) (*clusterstate.Room, error) {
	roomID := a.craftRoomID(index)

	if err := a.createRoomPod(roomID); err != nil {
		return nil, fmt.Errorf("roomalloc: failed to create pod for %s: %w", roomID, err)
	}

	nodePort, err := a.createRoomService(roomID)
	if err != nil {
		return nil, fmt.Errorf("roomalloc: failed to create service for %s: %w", roomID, err)
	}

	room := &clusterstate.Room{
		RoomID:          roomID,
		OwnerHubIndex:   a.hubIndex,
		Status:          clusterstate.RoomDormant,
		ExternalPort:    int(nodePort),
		InternalService: fmt.Sprintf("room-%s-svc.%s.svc.cluster.local", roomID, a.namespace),
		MaxPlayers:      4,
	}
	fmt.Printf("🛠️ [roomalloc] created dormant room %s on NodePort %d\n", roomID, nodePort)
	return room, nil
}

func (a *K8sAllocator) createRoomPod(roomID string) error {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "room-" + roomID,
			Namespace: a.namespace,
			Labels: map[string]string{
				"app":       "room",
				"room-id":   roomID,
				"owner-hub": fmt.Sprintf("%d", a.hubIndex),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyOnFailure,
			Containers: []corev1.Container{
				{
					Name:  "room",
					Image: roomImage,
					Ports: []corev1.ContainerPort{
						{ContainerPort: roomPort, Protocol: corev1.ProtocolTCP},
					},
					Env: []corev1.EnvVar{
						{Name: "ROOM_ID", Value: roomID},
						{Name: "OWNER_HUB", Value: fmt.Sprintf("%d", a.hubIndex)},
						{Name: "HUB_API_URL", Value: a.hubAPIURL},
					},
				},
			},
		},
	}
	return a.core.CreatePod(context.Background(), a.namespace, pod)
}

func (a *K8sAllocator) createRoomService(roomID string) (int32, error) {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("room-%s-svc", roomID),
			Namespace: a.namespace,
			Labels: map[string]string{
				"app":       "room",
				"room-id":   roomID,
				"owner-hub": fmt.Sprintf("%d", a.hubIndex),
			},
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeNodePort,
			Selector: map[string]string{"room-id": roomID},
			Ports: []corev1.ServicePort{
				{
					Port:       roomPort,
					TargetPort: intstr.FromInt(roomPort),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
	return a.core.CreateService(context.Background(), a.namespace, svc)
}

func (a *K8sAllocator) ActivateRoom() (*clusterstate.Room, error) {
	a.mu.Lock()
	for _, room := range a.pool {
		if room.Status == clusterstate.RoomDormant {
			room.Status = clusterstate.RoomActive
			a.mu.Unlock()
			a.onRoomActivated(room)
			return room, nil
		}
	}
	a.next++
	index := a.next
	a.mu.Unlock()

	room, err := a.createRoom(index)
	if err != nil {
		return nil, err
	}
	room.Status = clusterstate.RoomActive

	a.mu.Lock()
	a.pool[room.RoomID] = room
	a.mu.Unlock()

	a.onRoomActivated(room)
	return room, nil
}

func (a *K8sAllocator) GetAllLocal() []*clusterstate.Room {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*clusterstate.Room, 0, len(a.pool))
	for _, room := range a.pool {
		out = append(out, room)
	}
	return out
}

func (a *K8sAllocator) Cleanup() {
	a.mu.Lock()
	ids := make([]string, 0, len(a.pool))
	for id := range a.pool {
		ids = append(ids, id)
	}
	a.pool = make(map[string]*clusterstate.Room)
	a.mu.Unlock()

	ctx := context.Background()
	for _, roomID := range ids {
		if err := a.core.DeletePod(ctx, a.namespace, "room-"+roomID); err != nil {
			fmt.Printf("❌ [roomalloc] failed to delete pod for %s: %v\n", roomID, err)
		}
		if err := a.core.DeleteService(ctx, a.namespace, fmt.Sprintf("room-%s-svc", roomID)); err != nil {
			fmt.Printf("❌ [roomalloc] failed to delete service for %s: %v\n", roomID, err)
		}
	}
}
