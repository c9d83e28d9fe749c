package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentSource = (*HTTPSource)(nil)

// HTTPSource downloads http:// and https:// URLs.
type HTTPSource struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPSource creates an HTTP source. A nil client gets a 60s timeout.
func NewHTTPSource(client *http.Client, maxBytes int64) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPSource{client: client, maxBytes: maxBytes}
}

func (s *HTTPSource) Supports(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch GETs the URL and returns the Content-Type header as the MIME hint.
func (s *HTTPSource) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", domain.NewIOError(fmt.Sprintf("invalid url %s", location), err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", domain.NewIOError(fmt.Sprintf("failed to fetch %s", location), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", domain.NewIOError(fmt.Sprintf("%s returned status 404", location), domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, "", domain.NewIOError(fmt.Sprintf("%s returned status %d", location, resp.StatusCode), nil)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, "", domain.NewIOError(fmt.Sprintf("%s exceeds %d bytes", location, s.maxBytes), nil)
	}

	data, err := readLimited(resp.Body, s.maxBytes, location)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
