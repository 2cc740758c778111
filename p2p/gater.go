package p2p

import (
	"github.com/libp2p/go-libp2p/core/control"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// gater refuses new connections once the host is connected to more than max peers.
// Connections to bootnodes are always allowed.
type gater struct {
	h         host.Host
	max       int
	bootnodes map[peer.ID]struct{}
}

func (g *gater) full() bool {
	return g.h != nil && len(g.h.Network().Peers()) >= g.max
}

func (*gater) InterceptPeerDial(_ peer.ID) bool {
	return true
}

func (g *gater) InterceptAddrDial(pid peer.ID, _ multiaddr.Multiaddr) bool {
	if _, ok := g.bootnodes[pid]; ok {
		return true
	}
	return !g.full()
}

func (g *gater) InterceptAccept(_ network.ConnMultiaddrs) bool {
	return !g.full()
}

func (*gater) InterceptSecured(_ network.Direction, _ peer.ID, _ network.ConnMultiaddrs) bool {
	return true
}

func (*gater) InterceptUpgraded(_ network.Conn) (allow bool, reason control.DisconnectReason) {
	return true, 0
}
