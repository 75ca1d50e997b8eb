package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelbites/recipe-extractor/constants"
	"github.com/reelbites/recipe-extractor/internal/common"
)

// OEmbedConfig configures the oEmbed-backed content fetcher.
type OEmbedConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// OEmbedFetcher resolves post metadata (caption, thumbnail, media URL)
// through the platform's oEmbed endpoint. Download and decoding of the
// media itself is left to the AI providers.
type OEmbedFetcher struct {
	cfg    OEmbedConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOEmbedFetcher(cfg OEmbedConfig, logger *slog.Logger) *OEmbedFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OEmbedFetcher{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (f *OEmbedFetcher) Fetch(ctx context.Context, sourceURL string) (SourceContent, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return SourceContent{}, common.ValidationError("invalid source url")
	}
	postType, ok := constants.MapPathToPostType(parsed.Path)
	if !ok {
		return SourceContent{}, common.ValidationError("unsupported post type")
	}

	endpoint := f.cfg.BaseURL + "?url=" + url.QueryEscape(sourceURL) + "&omitscript=true"
	if f.cfg.AccessToken != "" {
		endpoint += "&access_token=" + url.QueryEscape(f.cfg.AccessToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return SourceContent{}, common.FetchError("build oembed request", err)
	}

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		f.logger.Error("fetch.oembed.send_error", "url", sourceURL, "error", err)
		return SourceContent{}, common.FetchError("oembed request failed", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("fetch.oembed.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	f.logger.Debug("fetch.oembed.response",
		"url", sourceURL,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		// Private or deleted posts show up as 400/404 here.
		return SourceContent{}, common.FetchError(fmt.Sprintf("oembed status %d (post may be private or deleted)", resp.StatusCode), nil)
	}

	var meta struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return SourceContent{}, common.FetchError("decode oembed response", err)
	}

	return SourceContent{
		SourceURL:    sourceURL,
		PostType:     postType,
		Caption:      strings.TrimSpace(meta.Title),
		ThumbnailURL: meta.ThumbnailURL,
		VideoURL:     sourceURL,
		AuthorName:   meta.AuthorName,
	}, nil
}

var _ ContentFetcher = (*OEmbedFetcher)(nil)
