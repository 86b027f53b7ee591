package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"musicone/internal/core"
	"musicone/pkg/medialink"
)

const videoListJSON = `{
	"items": [{
		"id": "dQw4w9WgXcQ",
		"snippet": {
			"title": "Rick Astley - Never Gonna Give You Up (Official Music Video)",
			"channelTitle": "Rick Astley",
			"publishedAt": "2009-10-25T06:57:33Z",
			"thumbnails": {
				"default": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg"},
				"high": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"},
				"maxres": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"}
			}
		},
		"contentDetails": {"duration": "PT3M33S"}
	}]
}`

func newAPITestAdapter(t *testing.T, status int, body string) (*APIAdapter, *int) {
	t.Helper()
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/youtube/v3/videos" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("part") != "snippet,contentDetails" {
			t.Errorf("part = %q", query.Get("part"))
		}
		if query.Get("id") != "dQw4w9WgXcQ" {
			t.Errorf("id = %q", query.Get("id"))
		}
		if query.Get("key") != "test-key" {
			t.Errorf("key = %q", query.Get("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	adapter := NewAPIAdapter(&core.YouTubeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/youtube/v3/",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	return adapter, &calls
}

func TestAPIAdapter_Fetch(t *testing.T) {
	adapter, calls := newAPITestAdapter(t, http.StatusOK, videoListJSON)

	track, err := adapter.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}

	expected := core.Track{
		Name:        "Rick Astley - Never Gonna Give You Up (Official Music Video)",
		Artist:      "Rick Astley",
		Album:       "YouTube Video",
		ReleaseDate: "2009-10-25",
		DurationMS:  213000,
		AlbumImage:  "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		Platform:    core.PlatformYouTube,
	}
	if *track != expected {
		t.Errorf("Fetch() = %+v, want %+v", *track, expected)
	}
	if *calls != 1 {
		t.Errorf("endpoint called %d times, want 1", *calls)
	}
}

func TestAPIAdapter_FetchErrors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectedReason core.FetchReason
	}{
		{
			name:           "No matching items",
			status:         http.StatusOK,
			body:           `{"items": []}`,
			expectedReason: core.ReasonNoItems,
		},
		{
			name:           "Quota exceeded",
			status:         http.StatusForbidden,
			body:           `{"error": {"code": 403, "message": "quotaExceeded"}}`,
			expectedReason: core.ReasonAuth,
		},
		{
			name:           "Invalid key",
			status:         http.StatusBadRequest,
			body:           `{"error": {"code": 400, "message": "API key not valid"}}`,
			expectedReason: core.ReasonAuth,
		},
		{
			name:           "Backend error",
			status:         http.StatusServiceUnavailable,
			body:           `{"error": {"code": 503}}`,
			expectedReason: core.ReasonTransport,
		},
		{
			name:           "Garbage body",
			status:         http.StatusOK,
			body:           `<html>`,
			expectedReason: core.ReasonMalformed,
		},
		{
			name:           "Item without title",
			status:         http.StatusOK,
			body:           `{"items": [{"snippet": {"channelTitle": "x"}}]}`,
			expectedReason: core.ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newAPITestAdapter(t, tt.status, tt.body)

			track, err := adapter.Fetch(context.Background(), "dQw4w9WgXcQ")
			if err == nil {
				t.Fatalf("Fetch() expected error, got %+v", track)
			}
			if reason := core.ReasonOf(err); reason != tt.expectedReason {
				t.Errorf("Fetch() reason = %q, want %q (err: %v)", reason, tt.expectedReason, err)
			}
		})
	}
}

func TestConvertVideo_Degraded(t *testing.T) {
	item := &videoItem{
		Snippet: videoSnippet{
			Title:       "Untitled",
			PublishedAt: "2020",
		},
		ContentDetails: videoContentDetails{Duration: "P0D"},
	}

	track := convertVideo(item)
	if track.ReleaseDate != "2020" {
		t.Errorf("ReleaseDate = %q, want short value passed through", track.ReleaseDate)
	}
	if track.DurationMS != 0 {
		t.Errorf("DurationMS = %d, want 0", track.DurationMS)
	}
	if track.AlbumImage != "" {
		t.Errorf("AlbumImage = %q, want empty", track.AlbumImage)
	}
}

func TestConvertVideo_HugeDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int64
	}{
		{name: "Absurd hour count", duration: "PT9999999999999H", expected: int64(medialink.MaxDurationSeconds) * 1000},
		{name: "Just under the ceiling", duration: "PT596523H14M6S", expected: (int64(medialink.MaxDurationSeconds) - 1) * 1000},
		{name: "Digits beyond int64", duration: "PT99999999999999999999H", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &videoItem{
				Snippet:        videoSnippet{Title: "Endless loop"},
				ContentDetails: videoContentDetails{Duration: tt.duration},
			}

			track := convertVideo(item)
			if track.DurationMS != tt.expected {
				t.Errorf("DurationMS = %d, want %d", track.DurationMS, tt.expected)
			}
			if track.DurationMS < 0 {
				t.Errorf("DurationMS = %d, must not be negative", track.DurationMS)
			}
		})
	}
}

func TestBestThumbnail(t *testing.T) {
	tests := []struct {
		name       string
		thumbnails map[string]thumbnail
		expected   string
	}{
		{
			name:       "High only",
			thumbnails: map[string]thumbnail{"high": {URL: "h"}, "default": {URL: "d"}},
			expected:   "h",
		},
		{
			name:       "Standard beats high",
			thumbnails: map[string]thumbnail{"high": {URL: "h"}, "standard": {URL: "s"}},
			expected:   "s",
		},
		{
			name:       "None",
			thumbnails: nil,
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bestThumbnail(tt.thumbnails); got != tt.expected {
				t.Errorf("bestThumbnail() = %q, want %q", got, tt.expected)
			}
		})
	}
}
