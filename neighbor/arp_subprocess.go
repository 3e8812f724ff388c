package neighbor

import (
	"bufio"
	"context"
	"os/exec"
	"strings"

	"github.com/netprobe/lanscout/internal/log"
)

// arpBackend reads the neighbor table via the `arp -a -n` subprocess.
// Used whenever netlink isn't available (non-Linux, or Linux without
// CAP_NET_ADMIN / netlink access).
type arpBackend struct{}

func newARPBackend() *arpBackend {
	return &arpBackend{}
}

// read runs `arp -a -n` with a wall-clock timeout; on timeout or any
// other failure (including the binary being absent), it returns an empty
// map rather than an error, per §7 of the specification.
func (b *arpBackend) read(ctx context.Context) (map[string]string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, ARPTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "arp", "-a", "-n")
	out, err := cmd.Output()
	if err != nil {
		log.Debugf("neighbor: arp subprocess failed: %s", err)
		return map[string]string{}, nil
	}

	return parseARPOutput(out), nil
}

// parseARPOutput parses lines of the form:
//
//	hostname (192.168.1.1) at aa:bb:cc:dd:ee:ff [ether] on eth0
//
// by whitespace: column 1 stripped of "()" is the IP, column 3 is the MAC.
func parseARPOutput(out []byte) map[string]string {
	neighbors := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if fields[2] != "at" {
			continue
		}

		ip := strings.Trim(fields[1], "()")
		mac := fields[3]
		if ip == "" || mac == "" {
			continue
		}
		neighbors[ip] = mac
	}

	return neighbors
}
