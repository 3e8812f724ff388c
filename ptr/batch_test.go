package ptr

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver is a minimal UDP PTR responder used to exercise Batch
// without touching the network.
type fakeResolver struct {
	conn *net.UDPConn
	// answers maps a queried IP string to the hostname it should answer
	// with. IPs absent from the map are left unanswered (simulating a
	// timeout).
	answers map[string]string
}

func newFakeResolver(t *testing.T, answers map[string]string) *fakeResolver {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)

	fr := &fakeResolver{conn: conn, answers: answers}
	go fr.serve(t)
	return fr
}

func (fr *fakeResolver) serve(t *testing.T) {
	buf := make([]byte, 512)
	for {
		n, addr, err := fr.conn.ReadFrom(buf)
		if err != nil {
			return
		}

		var req dns.Msg
		if err := req.Unpack(buf[:n]); err != nil {
			continue
		}
		if len(req.Question) != 1 {
			continue
		}

		ip := ipFromReverseName(req.Question[0].Name)
		hostname, ok := fr.answers[ip]
		if !ok {
			continue
		}

		reply := new(dns.Msg)
		reply.SetReply(&req)
		ptr := &dns.PTR{
			Hdr: dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 60},
			Ptr: dns.Fqdn(hostname),
		}
		reply.Answer = append(reply.Answer, ptr)

		packed, err := reply.Pack()
		if err != nil {
			continue
		}
		_, _ = fr.conn.WriteTo(packed, addr)
	}
}

func (fr *fakeResolver) close() { fr.conn.Close() }

// ipFromReverseName turns "1.0.168.192.in-addr.arpa." back into
// "192.168.0.1" so the fake resolver can look up its canned answer.
func ipFromReverseName(name string) string {
	const suffix = ".in-addr.arpa."
	if len(name) <= len(suffix) {
		return ""
	}
	octets := name[:len(name)-len(suffix)]
	parts := splitAndReverse(octets)
	return parts
}

func splitAndReverse(s string) string {
	var labels []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			labels = append(labels, s[start:i])
			start = i + 1
		}
	}
	out := ""
	for i := len(labels) - 1; i >= 0; i-- {
		if out != "" {
			out += "."
		}
		out += labels[i]
	}
	return out
}

func newTestBatch(fr *fakeResolver) *Batch {
	b := NewBatch()
	b.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "udp", fr.conn.LocalAddr().String())
	}
	return b
}

func TestBatchEmptyIPsReturnsEmptyWithoutDialing(t *testing.T) {
	b := NewBatch()
	b.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		t.Fatal("should not dial for an empty batch")
		return nil, nil
	}
	results, err := b.Run(context.Background(), "127.0.0.1", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchResolvesInOrder(t *testing.T) {
	fr := newFakeResolver(t, map[string]string{
		"192.168.1.10": "alpha.lan",
		"192.168.1.12": "gamma.lan",
	})
	defer fr.close()

	ips := []net.IP{
		net.ParseIP("192.168.1.10"),
		net.ParseIP("192.168.1.11"),
		net.ParseIP("192.168.1.12"),
	}

	b := newTestBatch(fr)
	origTimeout := ResponseTimeout
	ResponseTimeout = 500 * time.Millisecond
	defer func() { ResponseTimeout = origTimeout }()

	replies, err := b.Run(context.Background(), "127.0.0.1", ips)
	require.NoError(t, err)
	require.Len(t, replies, 3)

	require.NotNil(t, replies[0])
	assert.Equal(t, "alpha", replies[0].ShortHostname)
	assert.Nil(t, replies[1])
	require.NotNil(t, replies[2])
	assert.Equal(t, "gamma", replies[2].ShortHostname)
}

func TestBatchChunking(t *testing.T) {
	origBucket := QueryBucketSize
	QueryBucketSize = 2
	defer func() { QueryBucketSize = origBucket }()

	answers := map[string]string{
		"10.0.0.1": "a",
		"10.0.0.2": "b",
		"10.0.0.3": "c",
		"10.0.0.4": "d",
		"10.0.0.5": "e",
	}
	fr := newFakeResolver(t, answers)
	defer fr.close()

	var ips []net.IP
	for i := 1; i <= 5; i++ {
		ips = append(ips, net.ParseIP("10.0.0."+string(rune('0'+i))))
	}

	b := newTestBatch(fr)
	replies, err := b.Run(context.Background(), "127.0.0.1", ips)
	require.NoError(t, err)
	require.Len(t, replies, 5)
	for i, reply := range replies {
		require.NotNil(t, reply, "index %d", i)
	}
}

func TestBatchRejectsConcurrentRun(t *testing.T) {
	fr := newFakeResolver(t, nil)
	defer fr.close()

	b := newTestBatch(fr)
	b.running.Set()
	defer b.running.UnSet()

	_, err := b.Run(context.Background(), "127.0.0.1", []net.IP{net.ParseIP("1.2.3.4")})
	assert.ErrorIs(t, err, errAlreadyRunning)
}
