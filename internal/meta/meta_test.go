package meta

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Lupen-dev/Mori/internal/config"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewFetcher(config.MetaConfig{URL: server.URL, Timeout: 5 * time.Second}, zaptest.NewLogger(t))
}

func TestFetchParsesMeta(t *testing.T) {
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "UbiServices_SDK_2022.Release.9_PC64_ansi_static", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "version=5.11&platform=0&protocol=216", string(body))

		io.WriteString(w, "server|213.179.209.168\nport|17091\nmeta|ubisoft.growtopia1.com:17091\nRTENDMARKERBS1001")
	})

	meta, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ubisoft.growtopia1.com:17091", meta)
}

func TestFetchMetaMissing(t *testing.T) {
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "server|1.2.3.4\nport|17091\n")
	})

	_, err := fetcher.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMetaNotFound)
}

func TestFetchNonOKStatus(t *testing.T) {
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchRespectsContext(t *testing.T) {
	fetcher := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "meta|a:1")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx)
	assert.Error(t, err)
}
