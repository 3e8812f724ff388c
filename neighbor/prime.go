package neighbor

import (
	"context"
	"net"
	"time"

	"github.com/tevino/abool"

	"github.com/netprobe/lanscout/internal/log"
)

// primeARPCache sends a harmless zero-byte unicast datagram to each IP in
// missing on a throwaway port, provoking the kernel's ARP resolution
// without needing raw sockets or root, then waits ARPCachePopulateTime
// for the kernel to update its neighbor table. Send errors are logged at
// debug level and otherwise ignored — the datagrams are best-effort. It
// returns without waiting if the socket cannot be opened or no datagram
// could be sent, and the wait ends early if ctx is done.
func primeARPCache(ctx context.Context, missing []net.IP) {
	if len(missing) == 0 {
		return
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		log.Debugf("neighbor: could not open priming socket: %s", err)
		return
	}

	sent := abool.New()
	for _, ip := range missing {
		dst := &net.UDPAddr{IP: ip, Port: primingPort}
		if _, err := conn.WriteToUDP(nil, dst); err != nil {
			log.Debugf("neighbor: priming datagram to %s failed: %s", ip, err)
			continue
		}
		sent.Set()
	}

	// Close the socket only after all sends; we don't need to keep it
	// open across the wait, and closing unblocks promptly on teardown.
	_ = conn.Close()

	if !sent.IsSet() {
		return
	}

	select {
	case <-time.After(ARPCachePopulateTime):
	case <-ctx.Done():
	}
}

// primingPort is an arbitrary high, unassigned UDP port: nothing is
// expected to be listening there, which is the point — the kernel
// resolves the destination's MAC to route the (rejected) datagram.
const primingPort = 59999
