package hub

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// hostnamePattern matches the StatefulSet-style pod hostname "hub-<N>" an
// orchestrated hub is scheduled under, optionally followed by a subdomain
// suffix ("hub-2.hub-headless.default.svc.cluster.local").
var hostnamePattern = regexp.MustCompile(`^hub-(\d+)(\..*)?$`)

// indexFromHostname extracts a hub's ordinal index from its pod hostname.
func indexFromHostname(hostname string) (int, error) {
	matches := hostnamePattern.FindStringSubmatch(hostname)
	if matches == nil {
		return 0, fmt.Errorf("hub: hostname %q does not match hub-<N> pattern", hostname)
	}
	return strconv.Atoi(matches[1])
}

// SelfIndexFromEnv resolves this process's hub index. A bare HUB_INDEX
// override wins whenever it is set, in either discovery mode; otherwise
// the index is parsed from the HOSTNAME environment variable, or from the
// OS hostname when HOSTNAME is unset.
func SelfIndexFromEnv() (int, error) {
	if raw := os.Getenv("HUB_INDEX"); raw != "" {
		return strconv.Atoi(raw)
	}
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		return indexFromHostname(hostname)
	}
	hostname, err := os.Hostname()
	if err != nil {
		return 0, fmt.Errorf("hub: could not read hostname: %w", err)
	}
	return indexFromHostname(hostname)
}

// computeEndpoint derives peer i's gossip endpoint from this hub's
// configuration. In manual mode every hub lives on loopback distinguished
// by port; in orchestrated mode every hub is its own Kubernetes headless
// service member, addressed by DNS name.
func computeEndpoint(config Config, index int) clusterstate.Endpoint {
	if config.DiscoveryMode == DiscoveryOrchestrated {
		host := fmt.Sprintf("hub-%d.%s.%s.svc.cluster.local", index, config.HubServiceName, config.K8sNamespace)
		return clusterstate.Endpoint{Host: host, Port: config.GossipPort}
	}
	return clusterstate.Endpoint{Host: manualSeedHost, Port: config.GossipPort + index}
}

// runDiscovery performs the initial join. Manual mode dials hub 0
// directly (hub 0 itself has no seed to dial). Orchestrated mode samples
// a uniformly random peer among the expected cluster and dials it,
// tolerating peers that are not yet scheduled.
func (c *Coordinator) runDiscovery() {
	switch c.config.DiscoveryMode {
	case DiscoveryOrchestrated:
		c.discoverOrchestrated()
	default:
		c.discoverManual()
	}
}

func (c *Coordinator) discoverManual() {
	if c.config.SelfIndex == 0 {
		fmt.Printf("🌱 [hub %d] manual discovery: I am the seed, nothing to dial\n", c.config.SelfIndex)
		return
	}
	seed := clusterstate.Endpoint{Host: manualSeedHost, Port: c.config.GossipPort}
	c.dialSeed(seed, 0)
}

// discoverOrchestrated picks a uniformly random peer index among the
// expected cluster (excluding self) and sends it a peerJoin directly,
// rather than broadcasting blind into a service that may not have every
// member scheduled yet.
func (c *Coordinator) discoverOrchestrated() {
	if c.config.ExpectedHubCount <= 1 {
		fmt.Printf("🌱 [hub %d] orchestrated discovery: sole expected member\n", c.config.SelfIndex)
		return
	}

	candidates := make([]int, 0, c.config.ExpectedHubCount-1)
	for i := 0; i < c.config.ExpectedHubCount; i++ {
		if i != c.config.SelfIndex {
			candidates = append(candidates, i)
		}
	}
	target := candidates[rand.Intn(len(candidates))]
	endpoint := computeEndpoint(c.config, target)
	c.dialSeed(endpoint, target)
}

func (c *Coordinator) dialSeed(endpoint clusterstate.Endpoint, targetIndex int) {
	fmt.Printf("🔭 [hub %d] dialing seed hub %d at %s:%d\n", c.config.SelfIndex, targetIndex, endpoint.Host, endpoint.Port)

	msg := c.newMessage(wire.EventPeerJoin)
	msg.PeerJoin = &wire.PeerJoinPayload{JoiningIndex: c.config.SelfIndex}
	c.sendSpecific(msg, endpoint)
}

// onInsufficientPeers is the sparsity monitor's callback: too few known
// live peers means our discovery attempt likely landed on a peer that
// itself knew too little of the cluster, so we retry.
func (c *Coordinator) onInsufficientPeers() {
	fmt.Printf("🪫 [hub %d] peer count below fanout, re-running discovery\n", c.config.SelfIndex)
	c.runDiscovery()
}
