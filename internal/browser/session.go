// internal/browser/session.go

// Package browser owns the lifecycle of the controlled Chrome instance: it
// launches the process with anti-automation flags, exposes the page
// interactions the login flow needs, and taps the CDP network event stream.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/internal/browser/stealth"
	"github.com/Lupen-dev/Mori/internal/config"
)

// ErrLaunch indicates the browser process could not start or did not become
// responsive within the launch timeout.
var ErrLaunch = errors.New("browser launch failed")

const defaultLaunchTimeout = 30 * time.Second

// Session wraps one browser process with a single controlled tab. The
// allocator and tab contexts double as the event-loop handles: chromedp keeps
// the CDP connection alive as long as they live, and cancelling them is the
// cooperative stop signal for everything attached to the session.
type Session struct {
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	closeOnce sync.Once
}

// Launch starts a Chrome process configured for the login attempt and returns
// a Session once the browser answers on the DevTools connection.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	log := logger.Named("browser")

	opts := buildAllocatorOptions(cfg)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		logger:      log,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	launchTimeout := cfg.LaunchTimeout
	if launchTimeout <= 0 {
		launchTimeout = defaultLaunchTimeout
	}

	// Confirm the browser is alive before anything else touches the session.
	verifyCtx, verifyCancel := context.WithTimeout(tabCtx, launchTimeout)
	defer verifyCancel()
	if err := chromedp.Run(verifyCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: browser did not become responsive: %v", ErrLaunch, err)
	}

	if err := chromedp.Run(tabCtx, stealth.Apply(stealth.NewPersona(), log)); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: applying stealth persona: %v", ErrLaunch, err)
	}

	log.Info("Browser launched and responsive.",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("proxied", cfg.Proxy != ""))
	return s, nil
}

// buildAllocatorOptions assembles the launch flags. The anti-automation set
// is static and not user-configurable; extra args from config are appended on
// top. Later flags override chromedp's defaults, so enable-automation (which
// flips navigator.webdriver on) is switched off here.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
	)

	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	return opts
}

// TabContext exposes the tab's chromedp context so collaborators (the network
// tap) can register CDP listeners against it.
func (s *Session) TabContext() context.Context {
	return s.tabCtx
}

// Close tears down the tab and the browser process. Safe to call multiple
// times and safe to call even if the session already died on its own.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")
		s.tabCancel()
		s.allocCancel()
	})
}

// Navigate loads the given URL in the session tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	opCtx, opCancel := combineContext(s.tabCtx, ctx)
	defer opCancel()

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := chromedp.Run(opCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigation to %s canceled: %w", url, ctx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click waits for the element matching the selector to become visible and
// clicks it. Selectors starting with "//" are treated as XPath.
func (s *Session) Click(ctx context.Context, selector string) error {
	opCtx, opCancel := combineContext(s.tabCtx, ctx)
	defer opCancel()

	by := queryOption(selector)
	err := chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, by),
		chromedp.Click(selector, by),
	)
	if err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// Type clicks the element matching the selector to focus it, then sends the
// text as key events.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	opCtx, opCancel := combineContext(s.tabCtx, ctx)
	defer opCancel()

	by := queryOption(selector)
	err := chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, by),
		chromedp.Click(selector, by),
		chromedp.SendKeys(selector, text, by),
	)
	if err != nil {
		return fmt.Errorf("typing into %q failed: %w", selector, err)
	}
	return nil
}

func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "//") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// combineContext creates a new context that is canceled when either the
// session context or the operation context is canceled. chromedp actions must
// run on a context derived from the tab context, so the caller's deadline has
// to be merged in rather than passed through.
func combineContext(sessionCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(sessionCtx)

	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
