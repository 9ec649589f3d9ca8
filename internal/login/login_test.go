package login

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Lupen-dev/Mori/api/schemas"
	"github.com/Lupen-dev/Mori/internal/capture"
	"github.com/Lupen-dev/Mori/internal/config"
)

// fakeSession stands in for a launched browser: page interactions from
// fakePage plus a tab context that Close cancels, mirroring how closing the
// real session stops everything attached to it.
type fakeSession struct {
	*fakePage
	tabCtx context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

func newFakeSession() *fakeSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &fakeSession{fakePage: newFakePage(), tabCtx: ctx, cancel: cancel}
}

func (s *fakeSession) TabContext() context.Context { return s.tabCtx }

func (s *fakeSession) Close() {
	s.closed.Store(true)
	s.cancel()
}

type fakeTap struct {
	events chan schemas.RequestEvent
}

func newFakeTap(events ...schemas.RequestEvent) *fakeTap {
	ch := make(chan schemas.RequestEvent, len(events)+1)
	for _, ev := range events {
		ch <- ev
	}
	return &fakeTap{events: ch}
}

func (t *fakeTap) Attach(context.Context) error { return nil }

func (t *fakeTap) Events() <-chan schemas.RequestEvent { return t.events }

func (t *fakeTap) Dropped() uint64 { return 0 }

// stubSeams replaces the browser constructors for the duration of one test.
func stubSeams(t *testing.T, sess session, launchErr error, tap tapper) {
	t.Helper()
	origLaunch, origTap := launchSession, newTap
	t.Cleanup(func() { launchSession, newTap = origLaunch, origTap })

	launchSession = func(context.Context, config.BrowserConfig, *zap.Logger) (session, error) {
		if launchErr != nil {
			return nil, launchErr
		}
		return sess, nil
	}
	newTap = func(int, *zap.Logger) tapper { return tap }
}

func testConfig() *config.Config {
	return &config.Config{Login: config.LoginConfig{
		StepSettle:             time.Millisecond,
		FinalSettle:            50 * time.Millisecond,
		RequiredElementTimeout: time.Second,
		OptionalElementTimeout: time.Second,
		NavigationTimeout:      time.Second,
		EventQueueSize:         10,
	}}
}

func TestPerformLaunchFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	stubSeams(t, nil, errors.New("browser launch failed: no chrome binary"), newFakeTap())

	result := Perform(context.Background(), testConfig(), schemas.Credentials{}, zaptest.NewLogger(t))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "browser launch failed")
	assert.Empty(t, result.Token)
}

func TestPerformCapturesTokenFromTappedRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	sess := newFakeSession()
	tap := newFakeTap(schemas.RequestEvent{
		URL:  "https://www.growtopiagame.com/google/login",
		Body: "a=1&growtopia_token=abc%20def",
	})
	stubSeams(t, sess, nil, tap)

	creds := schemas.Credentials{Email: "user@example.com", Password: "hunter2"}
	result := Perform(context.Background(), testConfig(), creds, zaptest.NewLogger(t))

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "abc def", result.Token)
	assert.NotEmpty(t, result.UserAgent)
	assert.NotEmpty(t, result.MACAddress)
	assert.True(t, sess.closed.Load(), "session must be torn down before the result is returned")
}

func TestPerformReturnsFlowErrorWithinSettleBound(t *testing.T) {
	defer goleak.VerifyNone(t)

	sess := newFakeSession()
	sess.failOn["type:"+emailInputSelector] = errors.New("element not found")
	stubSeams(t, sess, nil, newFakeTap())

	creds := schemas.Credentials{Email: "user@example.com", Password: "hunter2"}

	start := time.Now()
	result := Perform(context.Background(), testConfig(), creds, zaptest.NewLogger(t))
	elapsed := time.Since(start)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "enter email")
	assert.True(t, sess.closed.Load())
	// The settle window is still honored on flow failure, but background
	// tasks must not hold the attempt open past it.
	assert.Less(t, elapsed, 2*time.Second, "attempt must return within the settle bound")
}

func TestPerformNoTokenCaptured(t *testing.T) {
	defer goleak.VerifyNone(t)

	sess := newFakeSession()
	stubSeams(t, sess, nil, newFakeTap())

	creds := schemas.Credentials{Email: "user@example.com", Password: "hunter2"}
	result := Perform(context.Background(), testConfig(), creds, zaptest.NewLogger(t))

	require.False(t, result.Success)
	assert.Equal(t, ErrNoTokenCaptured.Error(), result.Error)
	assert.True(t, sess.closed.Load())
}

func TestDeriveResultWithCapturedToken(t *testing.T) {
	cell := capture.NewTokenCell()
	cell.Set("abc def")

	// A captured token wins even when the flow reported a failure.
	result := deriveResult(cell, errors.New("click password next button: timeout"))

	require.True(t, result.Success)
	assert.Equal(t, "abc def", result.Token)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.UserAgent)
	require.NotEmpty(t, result.MACAddress)
	assert.Len(t, strings.Split(result.MACAddress, ":"), 6)
}

func TestDeriveResultWithFlowFailure(t *testing.T) {
	result := deriveResult(capture.NewTokenCell(), errors.New("enter email: element not found"))

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "enter email")
	assert.Empty(t, result.Token)
	assert.Empty(t, result.UserAgent)
	assert.Empty(t, result.MACAddress)
}

func TestDeriveResultWithNoTokenCaptured(t *testing.T) {
	result := deriveResult(capture.NewTokenCell(), nil)

	require.False(t, result.Success)
	assert.Equal(t, ErrNoTokenCaptured.Error(), result.Error)
}
