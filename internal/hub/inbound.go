package hub

import (
	"fmt"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// onDatagram is the transport's Handler: every inbound gossip message
// passes through here before anything else sees it.
//
// Pipeline: markForwardAlive (whoever physically sent us this datagram is
// alive, regardless of the message's origin) -> dedup against the
// origin's nonce -> dispatch to the event handler -> forward to a fresh
// fanout subset, with ourselves and the peer that forwarded it to us
// excluded.
func (c *Coordinator) onDatagram(msg *wire.GossipMessage, sender clusterstate.Endpoint) {
	c.state.MarkForwardAlive(msg.ForwardedBy, sender)

	fresh := c.state.ApplyHeartbeatObservation(msg.Origin, msg.Nonce, msg.IsLeaving())
	if !fresh {
		return
	}

	c.dispatch(msg)
	c.forward(msg)
}

// dispatch routes a freshly-accepted message to its event handler.
func (c *Coordinator) dispatch(msg *wire.GossipMessage) {
	switch msg.EventType {
	case wire.EventPeerJoin:
		c.handlePeerJoin(msg)
	case wire.EventPeerLeave:
		c.handlePeerLeave(msg)
	case wire.EventPeerAlive:
		c.handlePeerAlive(msg)
	case wire.EventPeerSuspicious:
		c.handlePeerSuspicious(msg)
	case wire.EventPeerDead:
		c.handlePeerDead(msg)
	case wire.EventRoomActivated:
		c.handleRoomActivated(msg)
	case wire.EventRoomStarted:
		c.handleRoomStarted(msg)
	case wire.EventRoomClosed:
		c.handleRoomClosed(msg)
	default:
		fmt.Printf("❓ [hub %d] unrecognized event type %v from origin %d\n", c.config.SelfIndex, msg.EventType, msg.Origin)
	}
}

// forward re-gossips a message we just accepted, excluding ourselves and
// whichever peer handed it to us, so the same datagram never bounces
// straight back where it came from.
func (c *Coordinator) forward(msg *wire.GossipMessage) {
	candidates := c.state.GetAllNotDead(c.config.SelfIndex)
	filtered := excludeForwarder(candidates, msg.ForwardedBy)

	targets := randomSubset(filtered, c.config.Fanout)
	if len(targets) == 0 {
		return
	}

	forwarded := *msg
	forwarded.ForwardedBy = c.config.SelfIndex
	c.sendMany(&forwarded, targets)
}

// excludeForwarder drops the peer that handed us this message from the
// forwarding candidate set, to reduce immediate return-to-sender.
func excludeForwarder(candidates []*clusterstate.Peer, forwardedBy int) []*clusterstate.Peer {
	filtered := candidates[:0:0]
	for _, p := range candidates {
		if p.Index == forwardedBy {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
