package neighbor

import "net"

// isExcludedScope reports whether ip's address category makes it
// ineligible to ever appear in discovery output: loopback, link-local,
// multicast, or unspecified. Ranges follow the teacher's netutils.
// GetIPScope classification, narrowed to the IPv4 cases this package
// cares about.
func isExcludedScope(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return true
	}

	switch {
	case ip4[0] == 0:
		// 0.0.0.0/8: unspecified.
		return true
	case ip4[0] == 127:
		// 127.0.0.0/8: loopback.
		return true
	case ip4[0] == 169 && ip4[1] == 254:
		// 169.254.0.0/16: link-local.
		return true
	case ip4[0] >= 224:
		// 224.0.0.0/4 and above: multicast and reserved.
		return true
	default:
		return false
	}
}
