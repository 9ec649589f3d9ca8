// internal/login/login.go
package login

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lupen-dev/Mori/api/schemas"
	"github.com/Lupen-dev/Mori/internal/browser"
	"github.com/Lupen-dev/Mori/internal/capture"
	"github.com/Lupen-dev/Mori/internal/config"
	"github.com/Lupen-dev/Mori/internal/identity"
)

// ErrNoTokenCaptured is reported when the flow ran to completion but no
// qualifying request was observed before the settle deadline.
var ErrNoTokenCaptured = errors.New("login flow completed but no token was captured")

// session is the capability set Perform needs from a launched browser: the
// page interactions the flow drives, plus the tab context and teardown.
type session interface {
	Page
	TabContext() context.Context
	Close()
}

// tapper is the consumer-facing surface of the network tap.
type tapper interface {
	Attach(tabCtx context.Context) error
	Events() <-chan schemas.RequestEvent
	Dropped() uint64
}

// launchSession and newTap are swapped out in tests so Perform's sequencing
// can be exercised without a browser process.
var (
	launchSession = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (session, error) {
		return browser.Launch(ctx, cfg, logger)
	}
	newTap = func(buffer int, logger *zap.Logger) tapper {
		return browser.NewTap(buffer, logger)
	}
)

// Perform runs one complete login attempt: launch the browser, tap its
// network traffic, drive the scripted sign-in, and read the token slot after
// the settle window. Exactly one LoginResult is produced, and all
// browser-side resources are released before it is returned.
func Perform(ctx context.Context, cfg *config.Config, creds schemas.Credentials, logger *zap.Logger) schemas.LoginResult {
	log := logger.Named("login").With(zap.String("attempt_id", uuid.NewString()))

	browserCfg := cfg.Browser
	browserCfg.Headless = creds.Headless
	if creds.Proxy != "" {
		browserCfg.Proxy = creds.Proxy
	}

	sess, err := launchSession(ctx, browserCfg, log)
	if err != nil {
		return failureResult(err)
	}
	defer sess.Close()

	tap := newTap(cfg.Login.EventQueueSize, log)
	if err := tap.Attach(sess.TabContext()); err != nil {
		return failureResult(err)
	}

	cell := capture.NewTokenCell()
	extractor := capture.NewExtractor(cell, log)

	// The extractor lives on the tab context: closing the session is the
	// cooperative stop signal for it and for the CDP listener alike.
	g, tapCtx := errgroup.WithContext(sess.TabContext())
	g.Go(func() error {
		extractor.Run(tapCtx, tap.Events())
		return nil
	})

	flow := NewFlow(sess, creds, cfg.Login, log)
	flowErr := flow.Run(ctx)
	if flowErr != nil {
		log.Warn("Login flow failed.", zap.Error(flowErr))
	}

	// Hold the session open for the settle window regardless of the flow
	// outcome; the token-bearing request may still be in flight. This is a
	// hard deadline, not a graceful drain.
	if err := sleepCtx(ctx, cfg.Login.FinalSettle); err != nil {
		log.Debug("Settle window cut short.", zap.Error(err))
	}

	sess.Close()
	_ = g.Wait()

	if dropped := tap.Dropped(); dropped > 0 {
		log.Warn("Network events were dropped during the attempt.", zap.Uint64("dropped", dropped))
	}

	return deriveResult(cell, flowErr)
}

// deriveResult maps the token slot and the flow outcome onto the three
// possible results: captured token, flow failure, or completed flow with
// nothing captured.
func deriveResult(cell *capture.TokenCell, flowErr error) schemas.LoginResult {
	if token, ok := cell.Get(); ok {
		return schemas.LoginResult{
			Success:    true,
			Token:      token,
			UserAgent:  identity.RandomUserAgent(),
			MACAddress: identity.RandomMAC(),
		}
	}
	if flowErr != nil {
		return failureResult(flowErr)
	}
	return failureResult(ErrNoTokenCaptured)
}

func failureResult(err error) schemas.LoginResult {
	return schemas.LoginResult{Error: err.Error()}
}
