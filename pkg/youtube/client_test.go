package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client())), server
}

func TestClientSearch(t *testing.T) {
	var gotQuery, gotKey, gotToken string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotToken = r.URL.Query().Get("pageToken")
		fmt.Fprint(w, `{
			"nextPageToken": "page2",
			"items": [
				{"id": {"videoId": "abc"}},
				{"id": {"videoId": "def"}},
				{"id": {"videoId": ""}}
			]
		}`)
	})
	defer server.Close()

	page, err := client.Search(context.Background(), "test-key", SearchQuery{Text: "radio repair"}, "tok")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "radio repair" || gotKey != "test-key" || gotToken != "tok" {
		t.Errorf("request q=%q key=%q pageToken=%q", gotQuery, gotKey, gotToken)
	}
	if len(page.VideoIDs) != 2 || page.VideoIDs[0] != "abc" || page.VideoIDs[1] != "def" {
		t.Errorf("VideoIDs = %v, want [abc def] with blank IDs dropped", page.VideoIDs)
	}
	if page.NextPageToken != "page2" {
		t.Errorf("NextPageToken = %q, want page2", page.NextPageToken)
	}
}

func TestClientSearchQuotaError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{
			"error": {
				"code": 403,
				"message": "The request cannot be completed because you have exceeded your quota.",
				"errors": [{"reason": "quotaExceeded"}]
			}
		}`)
	})
	defer server.Close()

	_, err := client.Search(context.Background(), "k", SearchQuery{Text: "x"}, "")
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 403 || apiErr.Reason != "quotaExceeded" {
		t.Errorf("APIError = %+v, want 403/quotaExceeded", apiErr)
	}
	if !IsCredentialError(err) {
		t.Error("quota response must classify as a credential error")
	}
}

func TestClientVideoDetails(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("path = %s, want /videos", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"items": [
				{
					"id": "good1",
					"snippet": {
						"title": "Tube Radio Restoration",
						"channelId": "UC1",
						"channelTitle": "Workshop",
						"publishedAt": "2025-03-08T10:00:00Z",
						"defaultAudioLanguage": "en"
					},
					"contentDetails": {"duration": "PT25M10S"}
				},
				{
					"id": "badtime",
					"snippet": {"title": "x", "publishedAt": "not-a-date"},
					"contentDetails": {"duration": "PT1M"}
				},
				{
					"id": "baddur",
					"snippet": {"title": "y", "publishedAt": "2025-03-08T10:00:00Z"},
					"contentDetails": {"duration": "1h"}
				},
				{
					"id": "",
					"snippet": {"title": "no id", "publishedAt": "2025-03-08T10:00:00Z"},
					"contentDetails": {"duration": "PT1M"}
				}
			]
		}`)
	})
	defer server.Close()

	videos, malformed, err := client.VideoDetails(context.Background(), "k", []string{"good1", "badtime", "baddur", "x"})
	if err != nil {
		t.Fatalf("VideoDetails failed: %v", err)
	}
	if malformed != 3 {
		t.Errorf("malformed = %d, want 3", malformed)
	}
	if len(videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(videos))
	}

	v := videos[0]
	if v.ID != "good1" || v.DurationSecs != 1510 {
		t.Errorf("video = %+v", v)
	}
	if v.TitleLower != "tube radio restoration" {
		t.Errorf("TitleLower = %q", v.TitleLower)
	}
	if v.URL != "https://www.youtube.com/watch?v=good1" {
		t.Errorf("URL = %q", v.URL)
	}
}

func TestClientVideoDetailsBatchLimit(t *testing.T) {
	client := NewClient()
	ids := make([]string, DetailBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}
	if _, _, err := client.VideoDetails(context.Background(), "k", ids); err == nil {
		t.Error("oversized batches must be rejected")
	}
	if videos, malformed, err := client.VideoDetails(context.Background(), "k", nil); err != nil || videos != nil || malformed != 0 {
		t.Error("empty batches are a no-op")
	}
}

func TestClientChannels(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("path = %s, want /channels", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"items": [
				{"id": "UC1", "snippet": {"title": "Mend It Mark", "customUrl": "@menditmark"}},
				{"id": "UC2", "snippet": {"title": "Old Workshop", "customUrl": "oldworkshop"}}
			]
		}`)
	})
	defer server.Close()

	meta, err := client.Channels(context.Background(), "k", []string{"UC1", "UC2"})
	if err != nil {
		t.Fatalf("Channels failed: %v", err)
	}
	if m := meta["UC1"]; m.Title != "Mend It Mark" || m.Handle != "@menditmark" {
		t.Errorf("UC1 = %+v", m)
	}
	// Handles come back with the @ prefix even when the upstream omits it.
	if m := meta["UC2"]; m.Handle != "@oldworkshop" {
		t.Errorf("UC2 handle = %q, want @oldworkshop", m.Handle)
	}
}
