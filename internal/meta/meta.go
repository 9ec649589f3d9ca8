// internal/meta/meta.go

// Package meta fetches the Growtopia server metadata string from the
// server_data endpoint. It is a standalone utility with no dependency on the
// login core.
package meta

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/internal/config"
)

// ErrMetaNotFound is returned when the endpoint answered but the response
// carried no meta field.
var ErrMetaNotFound = errors.New("server data response contained no meta field")

const (
	requestBody = "version=5.11&platform=0&protocol=216"
	userAgent   = "UbiServices_SDK_2022.Release.9_PC64_ansi_static"
)

// metaPattern extracts the value of the "meta|<value>" line from the
// pipe-delimited server data response.
var metaPattern = regexp.MustCompile(`meta\|([^ \n\r]+)`)

// Fetcher performs the server-data request.
type Fetcher struct {
	client *http.Client
	url    string
	logger *zap.Logger
}

// NewFetcher builds a fetcher for the configured endpoint. The server_data
// host presents a certificate that fails standard verification, so the
// client skips it.
func NewFetcher(cfg config.MetaConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		url:    cfg.URL,
		logger: logger.Named("meta"),
	}
}

// Fetch posts the fixed version handshake and returns the meta value.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("building server data request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("server data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server data request returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading server data response: %w", err)
	}

	match := metaPattern.FindSubmatch(content)
	if match == nil {
		return "", ErrMetaNotFound
	}

	meta := string(match[1])
	f.logger.Debug("Fetched server meta.", zap.String("meta", meta))
	return meta, nil
}
