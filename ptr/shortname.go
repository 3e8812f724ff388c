package ptr

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/idna"

	"github.com/netprobe/lanscout/internal/log"
)

// idnaCacheSize bounds the Punycode decode memoization cache. The same
// xn-- label recurs across many hosts on a subnet (a shared ISP-assigned
// domain, a router's default naming scheme, ...), so memoizing pays off
// even within a single discovery run; MaxAddresses is a natural upper
// bound since there's at most one label per discovered host.
const idnaCacheSize = 2048

var idnaCache = mustNewLRU(idnaCacheSize)

func mustNewLRU(size int) *lru.Cache[string, string] {
	c, err := lru.New[string, string](size)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}
	return c
}

// shortHostname extracts the short hostname from a fully-qualified PTR
// target: the left-most label, IDNA-decoded if it's a Punycode ("xn--")
// label. Decode failures silently fall through to the original label.
func shortHostname(fqdn string) string {
	label, _, _ := strings.Cut(strings.TrimSuffix(fqdn, "."), ".")
	if label == "" {
		return ""
	}

	if !strings.HasPrefix(label, "xn--") {
		return label
	}

	if decoded, ok := idnaCache.Get(label); ok {
		return decoded
	}

	decoded, err := idna.ToUnicode(label)
	if err != nil {
		log.Debugf("ptr: failed to IDNA-decode label %q: %s", label, err)
		decoded = label
	}

	idnaCache.Add(label, decoded)
	return decoded
}
