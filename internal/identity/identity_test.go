package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomMAC(t *testing.T) {
	for i := 0; i < 50; i++ {
		mac := RandomMAC()
		groups := strings.Split(mac, ":")
		require.Len(t, groups, 6, "MAC %q must have 6 groups", mac)
		for _, g := range groups {
			assert.Len(t, g, 2)
			assertHex(t, g)
		}
	}
}

func TestRandomRID(t *testing.T) {
	for i := 0; i < 50; i++ {
		rid := RandomRID()
		require.Len(t, rid, 32)
		assertHex(t, rid)
	}
}

func TestRandomHex(t *testing.T) {
	for _, length := range []int{0, 1, 10, 32, 64} {
		hex := RandomHex(length)
		require.Len(t, hex, length)
		assertHex(t, hex)
	}
}

func TestRandomUserAgent(t *testing.T) {
	ua := RandomUserAgent()
	assert.True(t, strings.HasPrefix(ua, "Mozilla/5.0"), "unexpected user agent %q", ua)
	assert.Contains(t, ua, "Chrome/")
}

func assertHex(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		assert.Contains(t, hexDigits, string(r), "non-hex character in %q", s)
	}
}
