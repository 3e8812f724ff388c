//go:build linux

package neighbor

import (
	"context"
	"fmt"
	"net"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// ndmsgLen is the size of the fixed rtnetlink `struct ndmsg` header that
// precedes the attribute stream in every RTM_*NEIGH message.
const ndmsgLen = 12

// netlinkBackend reads the kernel neighbor table via a netlink route
// socket. It holds one long-lived handle for the lifetime of the
// Collector; concurrent Collector.Get calls serialize through it.
type netlinkBackend struct {
	conn *netlink.Conn
}

func newNetlinkBackend() (*netlinkBackend, error) {
	conn, err := netlink.Dial(unix.NETLINK_ROUTE, nil)
	if err != nil {
		return nil, fmt.Errorf("neighbor: netlink dial failed: %w", err)
	}
	return &netlinkBackend{conn: conn}, nil
}

// read enumerates the kernel's IPv4 neighbor table. The netlink round
// trip is blocking, so it's run on a worker goroutine and awaited,
// keeping the caller's cooperative pipeline (see SPEC_FULL.md §5) off the
// syscall.
func (b *netlinkBackend) read(ctx context.Context) (map[string]string, error) {
	var (
		neighbors map[string]string
		g, gctx   = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		var err error
		neighbors, err = b.dumpNeighbors()
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if gctx.Err() != nil {
		return nil, gctx.Err()
	}

	return neighbors, nil
}

func (b *netlinkBackend) dumpNeighbors() (map[string]string, error) {
	req := netlink.Message{
		Header: netlink.Header{
			Type:  netlink.HeaderType(unix.RTM_GETNEIGH),
			Flags: netlink.Request | netlink.Dump,
		},
		Data: encodeNdmsg(unix.AF_INET),
	}

	msgs, err := b.conn.Execute(req)
	if err != nil {
		return nil, fmt.Errorf("neighbor: netlink RTM_GETNEIGH failed: %w", err)
	}

	neighbors := make(map[string]string)
	for _, msg := range msgs {
		ip, mac, ok := parseNeighMessage(msg)
		if !ok {
			continue
		}
		neighbors[ip] = mac
	}
	return neighbors, nil
}

func encodeNdmsg(family uint8) []byte {
	buf := make([]byte, ndmsgLen)
	buf[0] = family
	// pad1, pad2, ifindex, state, flags, type are all left zero: a dump
	// request doesn't filter on them.
	return buf
}

func parseNeighMessage(msg netlink.Message) (ip, mac string, ok bool) {
	if len(msg.Data) < ndmsgLen {
		return "", "", false
	}
	family := msg.Data[0]
	if family != unix.AF_INET {
		return "", "", false
	}

	ad, err := netlink.NewAttributeDecoder(msg.Data[ndmsgLen:])
	if err != nil {
		return "", "", false
	}
	ad.ByteOrder = nlenc.NativeEndian()

	var (
		dstBytes, llBytes []byte
	)
	for ad.Next() {
		switch ad.Type() {
		case unix.NDA_DST:
			dstBytes = append([]byte(nil), ad.Bytes()...)
		case unix.NDA_LLADDR:
			llBytes = append([]byte(nil), ad.Bytes()...)
		}
	}
	if ad.Err() != nil || len(dstBytes) != net.IPv4len || len(llBytes) == 0 {
		return "", "", false
	}

	return net.IP(dstBytes).String(), formatRawMAC(llBytes), true
}

func formatRawMAC(b []byte) string {
	if len(b) != 6 {
		return ""
	}
	return net.HardwareAddr(b).String()
}

func (b *netlinkBackend) close() error {
	return b.conn.Close()
}
