package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bomberman-gg/hub/internal/failuredetector"
	"github.com/bomberman-gg/hub/internal/hub"
	"github.com/bomberman-gg/hub/internal/httpapi"
	"github.com/bomberman-gg/hub/internal/roomalloc"
	"github.com/bomberman-gg/hub/internal/sparsity"
)

func main() {
	httpPort := flag.String("http-port", envOr("HTTP_PORT", "8080"), "Port the matchmaking HTTP surface listens on")
	gossipPort := flag.Int("gossip-port", envOrInt("GOSSIP_PORT", 9000), "Port the gossip datagram endpoint binds")
	fanout := flag.Int("fanout", envOrInt("HUB_FANOUT", hub.DefaultFanout), "Number of peers to gossip to per round")
	discoveryMode := flag.String("discovery-mode", envOr("HUB_DISCOVERY_MODE", "manual"), "manual or orchestrated")
	expectedHubCount := flag.Int("expected-hub-count", envOrInt("EXPECTED_HUB_COUNT", 1), "Expected cluster size, orchestrated mode only")
	hubServiceName := flag.String("hub-service-name", envOr("HUB_SERVICE_NAME", "hub-headless"), "Headless service name, orchestrated mode only")
	k8sNamespace := flag.String("k8s-namespace", envOr("K8S_NAMESPACE", "default"), "Kubernetes namespace, orchestrated mode only")
	externalAddress := flag.String("external-address", envOr("EXTERNAL_ADDRESS", ""), "Address advertised to players for this hub's rooms")
	useK8sRooms := flag.Bool("k8s-rooms", envOrBool("HUB_K8S_ROOMS", false), "Provision rooms as Kubernetes Pod+Service pairs instead of simulating them locally")

	defaultFD := failuredetector.DefaultConfig()
	suspectTimeout := envOrDuration("FAILURE_DETECTOR_SUSPECT_TIMEOUT", defaultFD.SuspectTimeout)
	deadTimeout := envOrDuration("FAILURE_DETECTOR_DEAD_TIMEOUT", defaultFD.DeadTimeout)
	checkInterval := envOrDuration("FAILURE_DETECTOR_CHECK_INTERVAL", defaultFD.CheckInterval)
	sparsityCheckInterval := envOrDuration("CHECK_INTERVAL", sparsity.DefaultCheckInterval)
	flag.Parse()

	selfIndex, err := hub.SelfIndexFromEnv()
	if err != nil {
		log.Fatal("Failed to resolve hub index: ", err)
	}

	fmt.Printf("🚀 Starting Bomberman hub %d\n", selfIndex)
	fmt.Printf("📡 Gossip port: %d, fanout: %d, discovery: %s\n", *gossipPort, *fanout, *discoveryMode)

	resolvedDiscoveryMode := hub.DiscoveryManual
	if *discoveryMode == "k8s" || *discoveryMode == string(hub.DiscoveryOrchestrated) {
		resolvedDiscoveryMode = hub.DiscoveryOrchestrated
	}

	config := hub.Config{
		SelfIndex:        selfIndex,
		GossipPort:       *gossipPort,
		Fanout:           *fanout,
		DiscoveryMode:    resolvedDiscoveryMode,
		ExpectedHubCount: *expectedHubCount,
		HubServiceName:   *hubServiceName,
		K8sNamespace:     *k8sNamespace,
		ExternalAddress:  *externalAddress,
		FailureDetector: failuredetector.Config{
			SuspectTimeout: suspectTimeout,
			DeadTimeout:    deadTimeout,
			CheckInterval:  checkInterval,
		},
		SparsityCheckInterval: sparsityCheckInterval,
	}

	coordinator := hub.New(config)

	var allocator roomalloc.Allocator
	if *useK8sRooms {
		hubAPIURL := fmt.Sprintf("http://hub-%d.%s.%s.svc.cluster.local:%s", selfIndex, *hubServiceName, *k8sNamespace, *httpPort)
		k8sAllocator, err := roomalloc.NewK8sAllocator(selfIndex, *k8sNamespace, *externalAddress, hubAPIURL, coordinator.HandleRoomActivated)
		if err != nil {
			log.Fatal("Failed to build Kubernetes room allocator: ", err)
		}
		allocator = k8sAllocator
	} else {
		allocator = roomalloc.NewLocalAllocator(selfIndex, coordinator.HandleRoomActivated)
	}
	coordinator.SetAllocator(allocator)

	if err := coordinator.Start(); err != nil {
		log.Fatal("Failed to start hub: ", err)
	}

	router := httpapi.NewRouter(coordinator)

	fmt.Printf("🌐 Matchmaking surface starting on http://0.0.0.0:%s\n", *httpPort)
	go func() {
		if err := router.Run("0.0.0.0:" + *httpPort); err != nil {
			log.Fatal("Failed to start HTTP server: ", err)
		}
	}()

	waitForShutdownSignal()

	fmt.Printf("\n🛑 Shutdown signal received, leaving cluster gracefully...\n")
	coordinator.Shutdown()
	fmt.Printf("✅ Hub %d shutdown complete\n", selfIndex)
}

func waitForShutdownSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
