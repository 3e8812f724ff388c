//go:build !linux

package neighbor

import (
	"context"
	"errors"
)

// netlinkBackend is unavailable outside Linux; NewCollector falls back to
// the arp subprocess backend whenever newNetlinkBackend fails.
type netlinkBackend struct{}

func newNetlinkBackend() (*netlinkBackend, error) {
	return nil, errors.New("neighbor: netlink backend is only available on linux")
}

func (b *netlinkBackend) read(_ context.Context) (map[string]string, error) {
	return nil, errors.New("neighbor: netlink backend is only available on linux")
}
