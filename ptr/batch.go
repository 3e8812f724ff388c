// Package ptr implements the asynchronous PTR query engine: a
// concurrency-bounded fan-out of reverse-DNS lookups against a single
// resolver, processed in fixed-size chunks with a per-query timeout.
package ptr

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/tevino/abool"

	"github.com/netprobe/lanscout/discover"
	"github.com/netprobe/lanscout/internal/log"
)

// errAlreadyRunning is returned if Run is called on a Batch that is
// already mid-run.
var errAlreadyRunning = errors.New("ptr: batch is already running")

// Tunables, bit-exact per the specification.
var (
	// QueryBucketSize is the number of PTR queries issued concurrently
	// before the batch waits for that chunk to fully settle.
	QueryBucketSize = 64

	// ResponseTimeout bounds how long a single PTR query may take.
	ResponseTimeout = 2 * time.Second
)

// DNSPort is the standard port PTR queries are sent to.
const DNSPort = 53

// Batch resolves PTR records for a set of IPs against a single resolver,
// with bounded concurrency and a timeout-with-null-fallback per query. A
// Batch is a per-run, per-resolver transient: a Run started while another
// Run on the same instance is in progress fails with errAlreadyRunning.
type Batch struct {
	running *abool.AtomicBool

	// dial, if set, overrides how a per-query UDP connection is
	// established. Exists for tests; production code leaves it nil and
	// gets net.Dial.
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewBatch returns a Batch ready to run.
func NewBatch() *Batch {
	return &Batch{running: abool.New()}
}

// Run resolves PTR records for ips against resolverAddr. The returned
// slice always has the same length and index alignment as ips; entries
// are nil where the query timed out, errored, or returned no usable PTR
// answer. Every socket opened during Run is closed before Run returns, on
// every exit path.
func (b *Batch) Run(ctx context.Context, resolverAddr string, ips []net.IP) ([]*discover.PTRReply, error) {
	if len(ips) == 0 {
		return []*discover.PTRReply{}, nil
	}

	if !b.running.SetToIf(false, true) {
		return nil, errAlreadyRunning
	}
	defer b.running.UnSet()

	results := make([]*discover.PTRReply, len(ips))

	for chunkStart := 0; chunkStart < len(ips); chunkStart += QueryBucketSize {
		chunkEnd := chunkStart + QueryBucketSize
		if chunkEnd > len(ips) {
			chunkEnd = len(ips)
		}

		var wg sync.WaitGroup
		for i := chunkStart; i < chunkEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = b.queryOne(ctx, resolverAddr, ips[i])
			}(i)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}

func (b *Batch) queryOne(ctx context.Context, resolverAddr string, ip net.IP) *discover.PTRReply {
	start := time.Now()
	defer func() {
		log.Tracer(ctx).Tracef("ptr: query for %s against %s took %s", ip, resolverAddr, time.Since(start))
	}()

	queryCtx, cancel := context.WithTimeout(ctx, ResponseTimeout)
	defer cancel()

	reverseName, err := dns.ReverseAddr(ip.String())
	if err != nil {
		log.Debugf("ptr: failed to build reverse address for %s: %s", ip, err)
		return nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverseName, dns.TypePTR)
	msg.RecursionDesired = true
	msg.Id = dns.Id()

	conn, err := b.dialConn(queryCtx, resolverAddr)
	if err != nil {
		log.Debugf("ptr: dial %s for %s failed: %s", resolverAddr, ip, err)
		return nil
	}
	defer conn.Close()

	if deadline, ok := queryCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	dnsConn := &dns.Conn{Conn: conn}
	if err := dnsConn.WriteMsg(msg); err != nil {
		log.Debugf("ptr: write query for %s to %s failed: %s", ip, resolverAddr, err)
		return nil
	}

	reply, err := dnsConn.ReadMsg()
	if err != nil {
		// Covers timeouts (deadline exceeded) and malformed responses
		// alike: both degrade to a null entry, never an error.
		log.Debugf("ptr: read reply for %s from %s failed: %s", ip, resolverAddr, err)
		return nil
	}

	return replyFromMsg(reply)
}

func (b *Batch) dialConn(ctx context.Context, resolverAddr string) (net.Conn, error) {
	address := net.JoinHostPort(resolverAddr, strconv.Itoa(DNSPort))
	if b.dial != nil {
		return b.dial(ctx, "udp", address)
	}
	var d net.Dialer
	return d.DialContext(ctx, "udp", address)
}

// replyFromMsg extracts the first PTR answer's short hostname. Per the
// first-wins semantics preserved from the historical behavior (see
// DESIGN.md), additional PTR records in the same message are ignored.
func replyFromMsg(msg *dns.Msg) *discover.PTRReply {
	for _, rr := range msg.Answer {
		if ptrRec, ok := rr.(*dns.PTR); ok {
			name := shortHostname(ptrRec.Ptr)
			if name == "" {
				return nil
			}
			return &discover.PTRReply{ShortHostname: name}
		}
	}
	return nil
}
