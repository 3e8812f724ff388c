package discover

import (
	"context"
	"net"

	"github.com/netprobe/lanscout/internal/log"
)

// ResolverSelector decides, given the host's network info, the ordered
// list of resolver addresses a discovery run should try.
type ResolverSelector struct {
	neighbors NeighborCollector
}

// NewResolverSelector builds a ResolverSelector. neighbors is used only to
// probe whether the default gateway answers ARP before appending it as a
// fallback resolver.
func NewResolverSelector(neighbors NeighborCollector) *ResolverSelector {
	return &ResolverSelector{neighbors: neighbors}
}

// Pick returns the ordered resolver list: the configured nameservers,
// followed by the router IP iff none of the configured nameservers are
// in-network and the router answers ARP.
func (s *ResolverSelector) Pick(ctx context.Context, info *SystemNetworkInfo) []string {
	resolvers := make([]string, len(info.Nameservers))
	copy(resolvers, info.Nameservers)

	if !s.shouldAppendRouter(ctx, info) {
		return resolvers
	}

	log.Debugf("discover: appending router %s as fallback resolver", info.RouterIP)
	return append(resolvers, info.RouterIP.String())
}

func (s *ResolverSelector) shouldAppendRouter(ctx context.Context, info *SystemNetworkInfo) bool {
	if info.RouterIP == nil {
		return false
	}

	routerStr := info.RouterIP.String()
	for _, ns := range info.Nameservers {
		if ns == routerStr {
			// Already present, nothing to append.
			return false
		}
	}

	if s.anyNameserverInNetwork(info) {
		return false
	}

	return s.routerAnswersARP(ctx, info.RouterIP)
}

func (s *ResolverSelector) anyNameserverInNetwork(info *SystemNetworkInfo) bool {
	for _, ns := range info.Nameservers {
		ip := net.ParseIP(ns)
		if ip == nil {
			continue
		}
		if info.Network.Contains(ip) {
			return true
		}
	}
	return false
}

func (s *ResolverSelector) routerAnswersARP(ctx context.Context, router net.IP) bool {
	if s.neighbors == nil {
		return false
	}

	found, err := s.neighbors.Get(ctx, []net.IP{router})
	if err != nil {
		log.Debugf("discover: router ARP probe for %s failed: %s", router, err)
		return false
	}

	_, ok := found[router.String()]
	return ok
}
