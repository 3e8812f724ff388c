package neighbor

import "strings"

// ignoredMACs are never valid discovery results: the all-zero MAC (an
// unresolved or placeholder neighbor entry) and the broadcast MAC.
var ignoredMACs = map[string]struct{}{
	"00:00:00:00:00:00": {},
	"ff:ff:ff:ff:ff:ff": {},
}

// normalizeMAC canonicalizes a MAC address to lowercase, zero-padded
// "xx:xx:xx:xx:xx:xx" form. Wire/subprocess output may omit leading
// zeros (e.g. "a:b:c:d:e:f"); this pads every component back to two hex
// digits. Returns "", false if addr isn't a 6-component MAC.
func normalizeMAC(addr string) (string, bool) {
	parts := strings.Split(addr, ":")
	if len(parts) != 6 {
		return "", false
	}

	b := strings.Builder{}
	for i, part := range parts {
		part = strings.ToLower(part)
		if len(part) == 0 || len(part) > 2 {
			return "", false
		}
		if len(part) == 1 {
			part = "0" + part
		}
		for _, c := range part {
			if !isHexDigit(c) {
				return "", false
			}
		}
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(part)
	}

	return b.String(), true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// isIgnoredMAC reports whether mac (already normalized) is one of the
// never-valid sentinel addresses.
func isIgnoredMAC(mac string) bool {
	_, ignored := ignoredMACs[mac]
	return ignored
}
