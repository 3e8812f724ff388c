package neighbor

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	reads  atomic.Int32
	tables []map[string]string
}

func (b *fakeBackend) read(_ context.Context) (map[string]string, error) {
	i := b.reads.Add(1) - 1
	if int(i) >= len(b.tables) {
		return b.tables[len(b.tables)-1], nil
	}
	return b.tables[i], nil
}

func TestCollectorFiltersInvalidEntries(t *testing.T) {
	fb := &fakeBackend{tables: []map[string]string{{
		"192.168.1.10": "aa:bb:cc:dd:ee:ff",
		"192.168.1.11": "00:00:00:00:00:00", // ignored MAC
		"127.0.0.1":    "aa:bb:cc:dd:ee:01", // loopback
		"not-an-ip":    "aa:bb:cc:dd:ee:02",
		"192.168.1.12": "not-a-mac",
	}}}

	c := &Collector{backend: fb}
	got, err := c.Get(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"192.168.1.10": "aa:bb:cc:dd:ee:ff"}, got)
}

func TestCollectorPrimesOnMissingIP(t *testing.T) {
	origWait := ARPCachePopulateTime
	ARPCachePopulateTime = 10 * time.Millisecond
	defer func() { ARPCachePopulateTime = origWait }()

	fb := &fakeBackend{tables: []map[string]string{
		{}, // first read: nothing known
		{"192.168.1.50": "aa:bb:cc:dd:ee:ff"}, // after priming
	}}

	c := &Collector{backend: fb}
	got, err := c.Get(context.Background(), []net.IP{net.ParseIP("192.168.1.50")})
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", got["192.168.1.50"])
	assert.EqualValues(t, 2, fb.reads.Load())
}

func TestCollectorSkipsPrimingWhenNothingMissing(t *testing.T) {
	fb := &fakeBackend{tables: []map[string]string{
		{"192.168.1.50": "aa:bb:cc:dd:ee:ff"},
	}}

	c := &Collector{backend: fb}
	got, err := c.Get(context.Background(), []net.IP{net.ParseIP("192.168.1.50")})
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", got["192.168.1.50"])
	assert.EqualValues(t, 1, fb.reads.Load())
}
