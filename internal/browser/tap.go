// internal/browser/tap.go
package browser

import (
	"context"
	"encoding/base64"
	"strings"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/api/schemas"
)

// DefaultTapBuffer is the bounded capacity of the event queue between the CDP
// listener and the consumer.
const DefaultTapBuffer = 100

// Tap subscribes to the browser's outbound-request event stream and forwards
// each request snapshot through a bounded channel. The forward is best-effort:
// when the consumer falls behind, events are dropped rather than blocking the
// CDP event dispatcher. The login flow issues very few qualifying requests,
// so a dropped event only risks missing the token on that one request.
type Tap struct {
	logger  *zap.Logger
	events  chan schemas.RequestEvent
	dropped atomic.Uint64
}

// NewTap creates a tap with the given queue capacity. A non-positive buffer
// falls back to DefaultTapBuffer.
func NewTap(buffer int, logger *zap.Logger) *Tap {
	if buffer <= 0 {
		buffer = DefaultTapBuffer
	}
	return &Tap{
		logger: logger.Named("tap"),
		events: make(chan schemas.RequestEvent, buffer),
	}
}

// Attach registers the CDP listener on the tab context and enables network
// events. The listener lives until the tab context is canceled; Attach must
// be called before the navigation whose traffic should be observed.
func (t *Tap) Attach(tabCtx context.Context) error {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || e.Request == nil {
			return
		}
		t.offer(t.snapshotRequest(e.Request))
	})

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		return err
	}

	t.logger.Debug("Network tap attached.")
	return nil
}

// Events returns the consumer side of the queue.
func (t *Tap) Events() <-chan schemas.RequestEvent {
	return t.events
}

// Dropped reports how many events were discarded because the queue was full.
func (t *Tap) Dropped() uint64 {
	return t.dropped.Load()
}

// offer performs the non-blocking forward into the bounded queue.
func (t *Tap) offer(ev schemas.RequestEvent) {
	select {
	case t.events <- ev:
	default:
		t.dropped.Add(1)
	}
}

// snapshotRequest flattens a CDP request into the transient event the
// extractor consumes. Newer CDP versions split POST bodies into entries, and
// each entry arrives base64 encoded on the wire.
func (t *Tap) snapshotRequest(req *network.Request) schemas.RequestEvent {
	var body string
	if req.HasPostData && len(req.PostDataEntries) > 0 {
		var b strings.Builder
		for _, entry := range req.PostDataEntries {
			decoded, err := base64.StdEncoding.DecodeString(entry.Bytes)
			if err != nil {
				// Not base64 after all; keep the raw entry.
				t.logger.Warn("Failed to decode post data entry, using raw bytes.",
					zap.Error(err), zap.String("url", req.URL))
				b.WriteString(entry.Bytes)
				continue
			}
			b.Write(decoded)
		}
		body = b.String()
	}
	return schemas.RequestEvent{URL: req.URL, Body: body}
}
