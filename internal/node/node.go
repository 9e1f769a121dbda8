// Package node wires the simulation, handoff and consensus packages onto a
// libp2p transport: host construction, mDNS discovery, the three
// request/response stream protocols, and the pubsub topic carrying commit
// announcements.
package node

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/consensus"
	"github.com/manifoldweb/node/internal/sector"
	"github.com/manifoldweb/node/internal/tick"
	"github.com/sirupsen/logrus"
)

const (
	// ProtocolSpawn is the request/response protocol for agent spawn requests.
	ProtocolSpawn = "/manifold/spawn/1.0.0"
	// ProtocolConsensus carries state proposals and votes.
	ProtocolConsensus = "/manifold/consensus/1.0.0"
	// ProtocolHandoff carries outbound agent transfers.
	ProtocolHandoff = "/manifold/handoff/1.0.0"
	// ActionsTopic is the pubsub topic StateCommit announcements are
	// broadcast on.
	ActionsTopic = "manifold-actions"
)

// Config fixes the libp2p-facing parameters of a node.
type Config struct {
	ListenAddr     string
	DiscoveryTag   string
	BootstrapPeers []string
}

// Node owns one participant's libp2p host alongside the simulation state
// that the core event loop (see Run) mutates.
type Node struct {
	host   host.Host
	ps     *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	log    *logrus.Logger

	peerLock sync.RWMutex
	peers    map[string]peer.AddrInfo

	// proposals carries inbound StateProposals from the consensus stream
	// handler goroutines to coreLoop, the sole goroutine allowed to touch
	// Coord. Handler goroutines enqueue a request and block on its resp
	// channel instead of calling into Coord directly.
	proposals chan consensusRequest

	Store  *agent.Store
	Table  *sector.OwnershipTable
	Engine *tick.Engine
	Coord  *consensus.Coordinator
}

// New constructs a libp2p host, joins the actions topic, starts mDNS
// discovery and dials any configured bootstrap peers.
func New(cfg Config, store *agent.Store, table *sector.OwnershipTable, engine *tick.Engine, log *logrus.Logger) (*Node, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("create pubsub: %w", err)
	}

	topic, err := ps.Join(ActionsTopic)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("join topic %s: %w", ActionsTopic, err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("subscribe topic %s: %w", ActionsTopic, err)
	}

	self := h.ID().String()
	n := &Node{
		host:   h,
		ps:     ps,
		topic:  topic,
		sub:    sub,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		log:    log,
		peers:  make(map[string]peer.AddrInfo),

		proposals: make(chan consensusRequest),

		Store:  store,
		Table:  table,
		Engine: engine,
		Coord:  consensus.NewCoordinator(self, log),
	}

	n.registerStreamHandlers()

	if err := n.DialSeed(cfg.BootstrapPeers); err != nil {
		log.WithError(err).Warn("dial seed peers")
	}

	mdns.NewMdnsService(h, cfg.DiscoveryTag, n)

	return n, nil
}

// Self returns this node's own identifier string.
func (n *Node) Self() string { return n.host.ID().String() }

var _ mdns.Notifee = (*Node)(nil)

// HandlePeerFound implements mdns.Notifee: connect to a newly discovered
// peer and add it to the known-peer set feeding leader election.
func (n *Node) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.host.ID() {
		return
	}

	n.peerLock.RLock()
	_, known := n.peers[info.ID.String()]
	n.peerLock.RUnlock()
	if known {
		return
	}

	if err := n.host.Connect(n.ctx, info); err != nil {
		n.log.WithError(err).WithField("peer", info.ID.String()).Warn("connect to discovered peer")
		return
	}

	n.peerLock.Lock()
	n.peers[info.ID.String()] = info
	n.peerLock.Unlock()
	n.log.WithField("peer", info.ID.String()).Info("connected via mdns")
}

// DialSeed connects to a list of bootstrap peer multiaddrs.
func (n *Node) DialSeed(seeds []string) error {
	var problems []string
	for _, addr := range seeds {
		pi, err := peer.AddrInfoFromString(addr)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid addr %s: %v", addr, err))
			continue
		}
		if err := n.host.Connect(n.ctx, *pi); err != nil {
			problems = append(problems, fmt.Sprintf("connect %s: %v", addr, err))
			continue
		}
		n.peerLock.Lock()
		n.peers[pi.ID.String()] = *pi
		n.peerLock.Unlock()
	}
	if len(problems) > 0 {
		return fmt.Errorf("dial errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Peers returns the identifiers of every peer currently known, the set
// consensus leader election sorts against.
func (n *Node) Peers() []string {
	n.peerLock.RLock()
	defer n.peerLock.RUnlock()
	out := make([]string, 0, len(n.peers))
	for id := range n.peers {
		out = append(out, id)
	}
	return out
}

// Close tears down the host and cancels the node's context.
func (n *Node) Close() error {
	n.cancel()
	return n.host.Close()
}
