package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// maxPayloadBytes caps a remote payload at the same size as a spreadsheet upload.
const maxPayloadBytes = 10 << 20

// PayloadFetcher loads records from a remote source.
type PayloadFetcher interface {
	FetchPayload(ctx context.Context, src model.URLSource) (Payload, error)
}

// HTTPFetcher fetches JSON payloads over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a sane timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPayload GETs src.URL and decodes a `{"contacts": [...], "products": [...]}`
// document. Only api sources are understood.
func (f *HTTPFetcher) FetchPayload(ctx context.Context, src model.URLSource) (Payload, error) {
	if src.Type != "" && src.Type != "api" {
		return Payload{}, fmt.Errorf("unsupported url source type %q", src.Type)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("fetch url %s: %w", src.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, src.URL)
	}

	var p Payload
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes))
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode payload from %s: %w", src.URL, err)
	}
	return p, nil
}
