package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortHostnameBasic(t *testing.T) {
	assert.Equal(t, "myhost", shortHostname("myhost.lan."))
	assert.Equal(t, "myhost", shortHostname("myhost.example.com."))
	assert.Equal(t, "", shortHostname(""))
	assert.Equal(t, "", shortHostname("."))
}

func TestShortHostnameIDNA(t *testing.T) {
	// "xn--mnchen-3ya" decodes to "münchen".
	got := shortHostname("xn--mnchen-3ya.example.com.")
	assert.Equal(t, "münchen", got)
}

func TestShortHostnameIDNAFailureFallsThrough(t *testing.T) {
	got := shortHostname("xn--not-valid-punycode-!!!.example.com.")
	assert.Equal(t, "xn--not-valid-punycode-!!!", got)
}

func TestShortHostnameCachesDecodedLabel(t *testing.T) {
	idnaCache.Purge()
	label := "xn--mnchen-3ya"
	got1 := shortHostname(label + ".example.com.")
	_, ok := idnaCache.Get(label)
	assert.True(t, ok)
	got2 := shortHostname(label + ".example.net.")
	assert.Equal(t, got1, got2)
}
