package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelbites/recipe-extractor/internal/common"
	"github.com/reelbites/recipe-extractor/internal/extraction"
)

// Client is the remote side of extraction.Pipeline: it talks to an
// extraction server over HTTP, decoding the SSE stream back into events.
// Wrapped in extraction.Resilient it gives CLIs and workers the same
// recovery behaviour a browser client implements by hand.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a client for the given server base URL, e.g.
// "http://localhost:8080/api/v1".
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

type extractRequest struct {
	SourceURL string `json:"source_url"`
	extraction.Options
}

// Start opens the streaming endpoint and decodes frames into a channel.
// The channel closes when the stream ends; a terminal event always
// precedes a clean close, so a close without one signals transport loss.
func (c *Client) Start(ctx context.Context, sourceURL string, opts extraction.Options) (uuid.UUID, <-chan extraction.ExtractionEvent, error) {
	resp, err := c.post(ctx, "/extract/stream", sourceURL, opts)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return uuid.Nil, nil, c.errorFromResponse(resp)
	}

	ch := make(chan extraction.ExtractionEvent, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		dec := NewDecoder(resp.Body)
		for {
			ev, err := dec.Next()
			if err != nil {
				if err != io.EOF {
					c.log.Warn("stream.decode_failed", slog.String("error", err.Error()))
				}
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Terminal() {
				return
			}
		}
	}()

	// The job id arrives on the first event; the header is a convenience
	// for callers that need it before reading.
	jobID, _ := uuid.Parse(resp.Header.Get("X-Job-ID"))
	return jobID, ch, nil
}

// StartBatch calls the non-streaming endpoint and decodes the terminal
// result directly.
func (c *Client) StartBatch(ctx context.Context, sourceURL string, opts extraction.Options) (*extraction.ExtractionResult, error) {
	resp, err := c.post(ctx, "/extract/batch", sourceURL, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp)
	}
	var result extraction.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, common.TransportError("decoding batch response", err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path, sourceURL string, opts extraction.Options) (*http.Response, error) {
	body, err := json.Marshal(extractRequest{SourceURL: sourceURL, Options: opts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.TransportError(fmt.Sprintf("POST %s failed", path), err)
	}
	c.log.Debug("stream.request",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// errorFromResponse maps the server's error envelope back onto the error
// taxonomy. 4xx responses keep their code (a validation failure must not
// be retried); everything else is a transport failure.
func (c *Client) errorFromResponse(resp *http.Response) error {
	var envelope struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(data, &envelope) == nil && envelope.Code != "" {
		return common.ErrorFromCode(envelope.Code, envelope.Error)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return common.ValidationError(fmt.Sprintf("server rejected request with status %d", resp.StatusCode))
	}
	return common.TransportError(fmt.Sprintf("server returned status %d", resp.StatusCode), nil)
}

var _ extraction.Pipeline = (*Client)(nil)
