// File: internal/identity/identity.go

// Package identity produces the random session fingerprints (MAC address,
// rid, hex blobs, user agent) reported alongside a captured token.
package identity

import (
	"fmt"
	"math/rand"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// chromeUserAgents is a fixed pool of plausible desktop Chrome user agents.
var chromeUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.81 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.54 Safari/537.36",
}

// RandomMAC returns a MAC-style address: six colon-separated two-digit
// uppercase hex groups.
func RandomMAC() string {
	groups := make([]string, 6)
	for i := range groups {
		groups[i] = fmt.Sprintf("%02X", rand.Intn(256))
	}
	return strings.Join(groups, ":")
}

// RandomRID returns a 32-character uppercase hex device identifier.
func RandomRID() string {
	var b strings.Builder
	b.Grow(32)
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&b, "%02X", rand.Intn(256))
	}
	return b.String()
}

// RandomHex returns a string of exactly length uppercase hex digits.
func RandomHex(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(hexDigits[rand.Intn(16)])
	}
	return b.String()
}

// RandomUserAgent picks one entry from the fixed user-agent pool.
func RandomUserAgent() string {
	return chromeUserAgents[rand.Intn(len(chromeUserAgents))]
}
