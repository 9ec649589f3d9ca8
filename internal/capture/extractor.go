// internal/capture/extractor.go

// Package capture watches the forwarded request stream for the Growtopia
// token-bearing login request and stores the first token it parses out.
package capture

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/api/schemas"
)

const (
	targetDomain  = "growtopiagame.com"
	loginPathHint = "login"
)

// tokenBodyPattern is the cheap pre-filter: the body must mention a
// Growtopia-qualified token before any fragment parsing happens.
var tokenBodyPattern = regexp.MustCompile(`(?i)growtopia.*?token`)

// TokenCell is the shared slot between the extraction goroutine and the
// orchestrator. It is scoped to a single login attempt and guarded by a
// mutex held only for the duration of one read or write. Later writes
// overwrite earlier ones, but in practice only one request matches the
// filter per attempt.
type TokenCell struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewTokenCell returns an empty cell.
func NewTokenCell() *TokenCell {
	return &TokenCell{}
}

// Set stores a captured token.
func (c *TokenCell) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.set = true
}

// Get returns the stored token and whether one was ever set.
func (c *TokenCell) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.set
}

// Extractor consumes request events and populates the token cell.
type Extractor struct {
	logger *zap.Logger
	cell   *TokenCell
}

// NewExtractor creates an extractor writing into the given cell.
func NewExtractor(cell *TokenCell, logger *zap.Logger) *Extractor {
	return &Extractor{
		logger: logger.Named("extractor"),
		cell:   cell,
	}
}

// Run consumes events until the context is canceled or the stream closes.
func (e *Extractor) Run(ctx context.Context, events <-chan schemas.RequestEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			token, found := extractToken(ev)
			if !found {
				continue
			}
			e.cell.Set(token)
			e.logger.Info("Token captured from login request.", zap.String("url", ev.URL))
		}
	}
}

// extractToken applies the filter-and-parse sequence to one request event:
// the URL must point at the Growtopia login endpoint, the body must pass the
// token pre-filter, and the first form fragment whose key contains "token"
// supplies the value. Values carrying a percent sign are decoded; a decode
// failure keeps the raw value.
func extractToken(ev schemas.RequestEvent) (string, bool) {
	if !strings.Contains(ev.URL, targetDomain) || !strings.Contains(ev.URL, loginPathHint) {
		return "", false
	}
	if ev.Body == "" || !tokenBodyPattern.MatchString(ev.Body) {
		return "", false
	}

	for _, fragment := range strings.Split(ev.Body, "&") {
		key, value, hasValue := strings.Cut(fragment, "=")
		if !strings.Contains(strings.ToLower(key), "token") {
			continue
		}
		if !hasValue {
			// A qualifying key with no value is skipped; a later fragment may
			// still carry the token.
			continue
		}
		if strings.Contains(value, "%") {
			if decoded, err := url.QueryUnescape(value); err == nil {
				value = decoded
			}
		}
		return value, true
	}
	return "", false
}
