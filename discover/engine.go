package discover

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/netprobe/lanscout/internal/log"
)

// Option configures a DiscoveryEngine at construction time.
type Option func(*DiscoveryEngine)

// WithMaxAddresses overrides the package-level MaxAddresses for a single
// engine instance.
func WithMaxAddresses(max int) Option {
	return func(e *DiscoveryEngine) { e.maxAddresses = max }
}

// DiscoveryEngine is the top-level discovery pipeline. It is long-lived
// across many Discover() calls: SystemNetworkInfo is fetched once, lazily,
// and the FailedResolverCache persists across runs on the same instance.
type DiscoveryEngine struct {
	provider  SystemNetworkInfoProvider
	ptr       PTRRunner
	neighbors NeighborCollector
	selector  *ResolverSelector

	maxAddresses int

	infoOnce sync.Once
	infoErr  error
	info     *SystemNetworkInfo

	failed *FailedResolverCache
}

// NewDiscoveryEngine constructs an engine. provider, ptrRunner, and
// neighbors are the injected collaborators described in SPEC_FULL.md.
func NewDiscoveryEngine(provider SystemNetworkInfoProvider, ptrRunner PTRRunner, neighbors NeighborCollector, opts ...Option) *DiscoveryEngine {
	e := &DiscoveryEngine{
		provider:     provider,
		ptr:          ptrRunner,
		neighbors:    neighbors,
		selector:     NewResolverSelector(neighbors),
		maxAddresses: MaxAddresses,
		failed:       NewFailedResolverCache(time.Now()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Discover runs one discovery pass. It is idempotent and safe to call
// sequentially many times on the same engine.
func (e *DiscoveryEngine) Discover(ctx context.Context) ([]DiscoveredHost, error) {
	ctx, tracer := log.AddTracer(ctx)
	defer tracer.Submit()

	info, err := e.systemNetworkInfo(ctx)
	if err != nil {
		return nil, err
	}
	log.Tracer(ctx).Tracef("discover: network %s has %d addresses", info.Network, info.Network.NumAddresses())

	if info.Network.NumAddresses() > e.maxAddresses {
		log.Warningf("discover: network %s has %d addresses, exceeding the %d limit; skipping run",
			info.Network, info.Network.NumAddresses(), e.maxAddresses)
		return nil, nil
	}

	e.failed.MaybeClear(time.Now())

	resolvers := e.selector.Pick(ctx, info)
	log.Tracer(ctx).Tracef("discover: selected %d candidate resolvers", len(resolvers))

	hostnames, order, failedThisRun := e.resolveHostnames(ctx, info, resolvers)
	if len(hostnames) > 0 {
		e.failed.AddAll(failedThisRun)
	}

	if len(hostnames) == 0 {
		return nil, nil
	}

	ips := make([]net.IP, 0, len(order))
	for _, ipStr := range order {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			continue
		}
		ips = append(ips, ip)
	}

	macs, err := e.neighbors.Get(ctx, ips)
	if err != nil {
		return nil, err
	}

	results := make([]DiscoveredHost, 0, len(order))
	for _, ipStr := range order {
		mac, ok := macs[ipStr]
		if !ok {
			continue
		}
		results = append(results, DiscoveredHost{
			IP:       ipStr,
			MAC:      mac,
			Hostname: hostnames[ipStr],
		})
	}

	log.Tracer(ctx).Tracef("discover: %d hosts with both a hostname and a MAC address", len(results))
	return results, nil
}

// resolveHostnames iterates the resolver list, skipping any resolver
// already in the failed cache, querying PTR records for the
// still-unresolved hosts, and stopping as soon as one resolver yields at
// least one hostname.
func (e *DiscoveryEngine) resolveHostnames(ctx context.Context, info *SystemNetworkInfo, resolvers []string) (hostnames map[string]string, order []string, failedThisRun map[string]struct{}) {
	hostnames = make(map[string]string)
	failedThisRun = make(map[string]struct{})

	allHosts := info.Network.Hosts()

	for _, resolver := range resolvers {
		if e.failed.Contains(resolver) {
			continue
		}

		pending := pendingIPs(allHosts, hostnames)
		if len(pending) == 0 {
			break
		}

		replies, err := e.ptr.Run(ctx, resolver, pending)
		if err != nil {
			log.Debugf("discover: resolver %s errored: %s", resolver, err)
			failedThisRun[resolver] = struct{}{}
			continue
		}

		if len(replies) == 0 {
			failedThisRun[resolver] = struct{}{}
			continue
		}

		gotAny := false
		for i, reply := range replies {
			if reply == nil || reply.ShortHostname == "" {
				continue
			}
			ipStr := pending[i].String()
			if _, already := hostnames[ipStr]; !already {
				order = append(order, ipStr)
			}
			hostnames[ipStr] = reply.ShortHostname
			gotAny = true
		}

		if gotAny {
			break
		}

		failedThisRun[resolver] = struct{}{}
	}

	return hostnames, order, failedThisRun
}

func (e *DiscoveryEngine) systemNetworkInfo(ctx context.Context) (*SystemNetworkInfo, error) {
	e.infoOnce.Do(func() {
		e.info, e.infoErr = e.provider.Get(ctx)
	})
	return e.info, e.infoErr
}

func pendingIPs(all []net.IP, resolved map[string]string) []net.IP {
	pending := make([]net.IP, 0, len(all))
	for _, ip := range all {
		if _, ok := resolved[ip.String()]; !ok {
			pending = append(pending, ip)
		}
	}
	return pending
}
