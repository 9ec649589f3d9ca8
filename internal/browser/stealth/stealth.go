// internal/browser/stealth/stealth.go

// Package stealth makes the automated tab present itself as an ordinary
// user-operated Chrome. The Google sign-in page refuses logins from sessions
// it classifies as automated, so a persona is applied before the first
// navigation.
package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/internal/identity"
)

//go:embed evasions.js
var evasionsScript string

// Persona is the surface-level fingerprint the tab reports: user agent,
// platform, languages, timezone, locale. The values must be mutually
// consistent or the mismatch itself becomes a detection signal.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	Timezone  string
	Locale    string
}

// NewPersona draws a persona for one login attempt. The user agent comes
// from the same pool reported in the login result, so the fingerprint the
// site saw and the fingerprint the caller records stay in agreement. The
// identity pool is Windows desktop Chrome throughout, hence the fixed
// platform.
func NewPersona() Persona {
	return Persona{
		UserAgent: identity.RandomUserAgent(),
		Platform:  "Win32",
		Languages: []string{"en-US", "en"},
		Timezone:  "America/New_York",
		Locale:    "en-US",
	}
}

// Apply builds the CDP action sequence installing the persona on the tab.
// A nil logger is tolerated.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Applying stealth persona.",
		zap.String("user_agent", p.UserAgent),
		zap.String("timezone", p.Timezone),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent),

		// Registered before any document loads so navigator properties are
		// patched ahead of page scripts.
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(evasionsScript).Do(ctx); err != nil {
				return fmt.Errorf("injecting evasions script: %w", err)
			}
			return nil
		}),

		emulation.SetTimezoneOverride(p.Timezone),
		emulation.SetLocaleOverride().WithLocale(p.Locale),
	}

	if header := acceptLanguage(p.Languages); header != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": header,
		}))
	}

	return tasks
}

// acceptLanguage renders an Accept-Language header value with descending
// quality weights, e.g. "en-US,en;q=0.9". An empty language list yields an
// empty value and the header override is skipped.
func acceptLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(languages))
	parts = append(parts, languages[0])
	for i, lang := range languages[1:] {
		q := 0.9 - 0.1*float64(i)
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}
