// Package youtube implements the upstream data API client: paged video
// search, batched detail resolution and channel metadata lookup. The client
// classifies upstream failures into credential-class errors (advance the key
// pool), transient errors (retry with backoff) and malformed items (skip and
// count), and rate-limits outgoing requests.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ytsift/ytsift/pkg/core"
	"github.com/ytsift/ytsift/pkg/filter"
	"github.com/ytsift/ytsift/pkg/log"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client talks to the upstream data API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root. Used by tests to
// target an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client with a 30 second request timeout and a request
// rate cap of 8/s (burst 4), well under the upstream's per-key limits.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(8), 4),
		logger:     log.ForComponent("youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPage is one page of search results: item identifiers plus the
// continuation token for the next page, absent on the last page.
type SearchPage struct {
	VideoIDs      []string
	NextPageToken string
}

type searchListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// Search fetches one page of video identifiers for the query. An empty
// pageToken requests the first page.
func (c *Client) Search(ctx context.Context, apiKey string, query SearchQuery, pageToken string) (*SearchPage, error) {
	params := query.Params()
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp searchListResponse
	if err := c.get(ctx, apiKey, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("search.list: %w", err)
	}

	page := &SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			page.VideoIDs = append(page.VideoIDs, item.ID.VideoID)
		}
	}
	return page, nil
}

type videosListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title                string `json:"title"`
			ChannelID            string `json:"channelId"`
			ChannelTitle         string `json:"channelTitle"`
			PublishedAt          string `json:"publishedAt"`
			DefaultAudioLanguage string `json:"defaultAudioLanguage"`
			DefaultLanguage      string `json:"defaultLanguage"`
			Thumbnails           struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoDetails resolves full metadata for up to DetailBatchSize identifiers.
// Items that fail to parse are dropped and counted, never fatal.
func (c *Client) VideoDetails(ctx context.Context, apiKey string, ids []string) ([]core.Video, int, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}
	if len(ids) > DetailBatchSize {
		return nil, 0, fmt.Errorf("videos.list: %d ids exceeds the per-request limit of %d", len(ids), DetailBatchSize)
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var resp videosListResponse
	if err := c.get(ctx, apiKey, "/videos", params, &resp); err != nil {
		return nil, 0, fmt.Errorf("videos.list: %w", err)
	}

	videos := make([]core.Video, 0, len(resp.Items))
	malformed := 0
	for _, item := range resp.Items {
		if item.ID == "" || item.Snippet.Title == "" {
			malformed++
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			c.logger.Debugf("video %s: bad publishedAt %q", item.ID, item.Snippet.PublishedAt)
			malformed++
			continue
		}
		durationSecs, err := filter.ParseISO8601Duration(item.ContentDetails.Duration)
		if err != nil {
			c.logger.Debugf("video %s: %v", item.ID, err)
			malformed++
			continue
		}
		videos = append(videos, core.Video{
			ID:              item.ID,
			Title:           item.Snippet.Title,
			TitleLower:      strings.ToLower(item.Snippet.Title),
			ChannelID:       item.Snippet.ChannelID,
			ChannelTitle:    item.Snippet.ChannelTitle,
			PublishedAt:     publishedAt.UTC(),
			DurationSecs:    durationSecs,
			AudioLanguage:   item.Snippet.DefaultAudioLanguage,
			DefaultLanguage: item.Snippet.DefaultLanguage,
			ThumbnailURL:    item.Snippet.Thumbnails.Medium.URL,
			URL:             "https://www.youtube.com/watch?v=" + item.ID,
		})
	}
	return videos, malformed, nil
}

// ChannelMeta is the display metadata resolved for one channel.
type ChannelMeta struct {
	Title  string
	Handle string
}

type channelsListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title     string `json:"title"`
			CustomURL string `json:"customUrl"`
		} `json:"snippet"`
	} `json:"items"`
}

// Channels resolves display names and handles for up to DetailBatchSize
// channel identifiers.
func (c *Client) Channels(ctx context.Context, apiKey string, ids []string) (map[string]ChannelMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", strings.Join(ids, ","))

	var resp channelsListResponse
	if err := c.get(ctx, apiKey, "/channels", params, &resp); err != nil {
		return nil, fmt.Errorf("channels.list: %w", err)
	}

	meta := make(map[string]ChannelMeta, len(resp.Items))
	for _, item := range resp.Items {
		handle := strings.TrimSpace(item.Snippet.CustomURL)
		if handle != "" && !strings.HasPrefix(handle, "@") {
			handle = "@" + handle
		}
		meta[item.ID] = ChannelMeta{
			Title:  strings.TrimSpace(item.Snippet.Title),
			Handle: handle,
		}
	}
	return meta, nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, apiKey, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("key", apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debugf("closing response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var envelope errorEnvelope
		if json.Unmarshal(body, &envelope) == nil {
			if envelope.Error.Message != "" {
				apiErr.Message = envelope.Error.Message
			}
			if len(envelope.Error.Errors) > 0 {
				apiErr.Reason = envelope.Error.Errors[0].Reason
			}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
