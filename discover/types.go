// Package discover implements the top-level LAN host discovery pipeline:
// it combines a neighbor.Collector (kernel ARP/neighbor table) and a
// ptr.Batch (reverse-DNS resolution) to produce, for every live IPv4 host
// on the locally attached subnet, a (ip, mac, short-hostname) triple.
package discover

import (
	"context"
	"net"
	"time"
)

// SystemNetworkInfo describes the host's own network attachment. It is
// obtained once, lazily, and reused for the lifetime of a DiscoveryEngine.
type SystemNetworkInfo struct {
	// Network is the locally attached IPv4 subnet to scan.
	Network Network

	// Nameservers is the ordered list of resolver addresses configured on
	// the host (IPv4 or IPv6), e.g. parsed from resolv.conf.
	Nameservers []string

	// RouterIP is the default gateway, if known.
	RouterIP net.IP

	// HasNetlink reports whether the kernel neighbor table can be read via
	// netlink on this host (Linux). When false, neighbor.Collector falls
	// back to the `arp` subprocess backend.
	HasNetlink bool
}

// SystemNetworkInfoProvider supplies SystemNetworkInfo. Discovering the
// host's own IPv4 address, default gateway, and interface prefix, and
// reading /etc/resolv.conf, is explicitly out of scope for this module
// (see SPEC_FULL.md) — callers inject their own provider. sysnet.
// ParseResolvConf is provided as a building block for implementations
// that need it.
type SystemNetworkInfoProvider interface {
	Get(ctx context.Context) (*SystemNetworkInfo, error)
}

// DiscoveredHost is a single live host found on the subnet.
type DiscoveredHost struct {
	IP       string
	MAC      string
	Hostname string
}

// PTRReply is the result of a single reverse-DNS query, or nil if the
// query timed out, errored, or returned no usable name.
type PTRReply struct {
	// ShortHostname is the first dot-delimited label of the PTR target,
	// IDNA-decoded if it was a Punycode ("xn--") label.
	ShortHostname string
}

// PTRRunner resolves a batch of PTR queries against a single resolver.
// The returned slice always has the same length and index alignment as
// ips; a nil entry means that query produced no usable name.
type PTRRunner interface {
	Run(ctx context.Context, resolverAddr string, ips []net.IP) ([]*PTRReply, error)
}

// NeighborCollector yields the kernel's ip -> mac mapping, priming the ARP
// cache for any requested IP that isn't already present.
type NeighborCollector interface {
	Get(ctx context.Context, ips []net.IP) (map[string]string, error)
}

// Tunable constants, bit-exact per the specification. Declared as package
// vars (rather than inlined) so an embedder can override them before
// constructing an engine, following the teacher's own pattern of
// package-level tunables in resolver-plain.go.
var (
	// MaxAddresses bounds the subnet size a single discover() call will
	// scan. Larger subnets return an empty result rather than attempt an
	// unbounded scan.
	MaxAddresses = 2048

	// CacheClearInterval is how long a resolver stays in the failed-
	// resolver cache before being retried.
	CacheClearInterval = 24 * time.Hour
)
