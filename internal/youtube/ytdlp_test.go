package youtube

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"musicone/internal/core"
	"musicone/internal/extool"
	"musicone/pkg/medialink"
)

const rickURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func testTools() *core.ToolsConfig {
	return &core.ToolsConfig{
		YtdlpPath:       "yt-dlp",
		SpotdlPath:      "spotdl",
		UserAgent:       core.DefaultUserAgent,
		PlayerClient:    core.DefaultPlayerClient,
		MetadataTimeout: 30 * time.Second,
		DownloadTimeout: 300 * time.Second,
		DownloadDir:     "/tmp/music",
	}
}

func TestToolAdapter_MetadataArgs(t *testing.T) {
	adapter := NewToolAdapter(nil, testTools(), "", zap.NewNop())

	expected := []string{
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		"--extractor-args", "youtube:player_client=android",
		"--user-agent", "com.google.android.youtube/17.36.4 (Linux; U; Android 12; GB) gzip",
		rickURL,
	}
	if got := adapter.MetadataArgs(rickURL, ""); !reflect.DeepEqual(got, expected) {
		t.Errorf("MetadataArgs() = %q, want %q", got, expected)
	}

	withCookies := adapter.MetadataArgs(rickURL, "/tmp/c.txt")
	if withCookies[len(withCookies)-3] != "--cookies" || withCookies[len(withCookies)-2] != "/tmp/c.txt" {
		t.Errorf("MetadataArgs() with cookies = %q", withCookies)
	}
	if withCookies[len(withCookies)-1] != rickURL {
		t.Errorf("URL must be the last argument, got %q", withCookies)
	}
}

func TestToolAdapter_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		expected core.Track
	}{
		{
			name:   "Full document",
			stdout: `{"title": "Never Gonna Give You Up", "uploader": "Rick Astley", "upload_date": "20091025", "duration": 212.6, "thumbnail": "https://i.ytimg.com/t.jpg"}`,
			expected: core.Track{
				Name:        "Never Gonna Give You Up",
				Artist:      "Rick Astley",
				Album:       "YouTube Video",
				ReleaseDate: "20091025",
				DurationMS:  212000,
				AlbumImage:  "https://i.ytimg.com/t.jpg",
				Platform:    core.PlatformYouTube,
			},
		},
		{
			name:   "Missing fields",
			stdout: `{"id": "dQw4w9WgXcQ"}` + "\n",
			expected: core.Track{
				Name:        "Unknown",
				Artist:      "Unknown",
				Album:       "YouTube Video",
				ReleaseDate: "Unknown",
				DurationMS:  0,
				AlbumImage:  "",
				Platform:    core.PlatformYouTube,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured extool.Command
			runner := extool.RunnerFunc(func(_ context.Context, cmd extool.Command) (*extool.Result, error) {
				captured = cmd
				return &extool.Result{Stdout: []byte(tt.stdout)}, nil
			})
			adapter := NewToolAdapter(runner, testTools(), "", zap.NewNop())

			track, err := adapter.Fetch(context.Background(), rickURL)
			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if *track != tt.expected {
				t.Errorf("Fetch() = %+v, want %+v", *track, tt.expected)
			}
			if captured.Path != "yt-dlp" {
				t.Errorf("Path = %q, want yt-dlp", captured.Path)
			}
			if captured.Timeout != 30*time.Second {
				t.Errorf("Timeout = %v, want 30s", captured.Timeout)
			}
			if captured.Args[0] != "--dump-json" {
				t.Errorf("Args = %q, want --dump-json first", captured.Args)
			}
		})
	}
}

func TestToolAdapter_FetchErrors(t *testing.T) {
	tests := []struct {
		name           string
		result         *extool.Result
		err            error
		expectedReason core.FetchReason
		expectedDetail string
	}{
		{
			name: "Non-zero exit",
			err: &extool.Error{
				Tool:     "yt-dlp",
				ExitCode: 1,
				Stderr:   "ERROR: [youtube] dQw4w9WgXcQ: Video unavailable\n",
				Err:      extool.ErrExit,
			},
			expectedReason: core.ReasonToolFailed,
			expectedDetail: "ERROR: [youtube] dQw4w9WgXcQ: Video unavailable",
		},
		{
			name:           "Timeout",
			err:            &extool.Error{Tool: "yt-dlp", Err: extool.ErrTimeout},
			expectedReason: core.ReasonTimeout,
			expectedDetail: "yt-dlp timed out",
		},
		{
			name:           "Not installed",
			err:            &extool.Error{Tool: "yt-dlp", Err: extool.ErrNotInstalled},
			expectedReason: core.ReasonToolFailed,
			expectedDetail: "yt-dlp: executable not found",
		},
		{
			name:           "Not JSON",
			result:         &extool.Result{Stdout: []byte("[download] 100%")},
			expectedReason: core.ReasonMalformed,
			expectedDetail: "output is not valid JSON",
		},
		{
			name:           "Empty output",
			result:         &extool.Result{},
			expectedReason: core.ReasonMalformed,
			expectedDetail: "empty output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := extool.RunnerFunc(func(context.Context, extool.Command) (*extool.Result, error) {
				return tt.result, tt.err
			})
			adapter := NewToolAdapter(runner, testTools(), "", zap.NewNop())

			_, err := adapter.Fetch(context.Background(), rickURL)
			var fetchErr *core.FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("Fetch() error = %v, want *core.FetchError", err)
			}
			if fetchErr.Reason != tt.expectedReason {
				t.Errorf("Reason = %q, want %q", fetchErr.Reason, tt.expectedReason)
			}
			if fetchErr.Detail != tt.expectedDetail {
				t.Errorf("Detail = %q, want %q", fetchErr.Detail, tt.expectedDetail)
			}
			if fetchErr.Source != ToolAdapterName {
				t.Errorf("Source = %q, want %q", fetchErr.Source, ToolAdapterName)
			}
		})
	}
}

func TestToolAdapter_CookiesScopedToCall(t *testing.T) {
	const cookies = "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tSID\tsecret\n"

	var cookiePath string
	runner := extool.RunnerFunc(func(_ context.Context, cmd extool.Command) (*extool.Result, error) {
		for i, arg := range cmd.Args {
			if arg == "--cookies" && i+1 < len(cmd.Args) {
				cookiePath = cmd.Args[i+1]
			}
		}
		if cookiePath == "" {
			t.Fatal("expected --cookies argument")
		}
		content, err := os.ReadFile(cookiePath)
		if err != nil {
			t.Fatalf("cookie file not readable during run: %v", err)
		}
		if string(content) != cookies {
			t.Errorf("cookie file content = %q, want %q", content, cookies)
		}
		return &extool.Result{Stdout: []byte(`{"title": "t"}`)}, nil
	})
	adapter := NewToolAdapter(runner, testTools(), cookies, zap.NewNop())

	if _, err := adapter.Fetch(context.Background(), rickURL); err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if _, err := os.Stat(cookiePath); !os.IsNotExist(err) {
		t.Errorf("cookie file %q still exists after the call (stat err: %v)", cookiePath, err)
	}
}

func TestDownloader_Download(t *testing.T) {
	var captured extool.Command
	runner := extool.RunnerFunc(func(_ context.Context, cmd extool.Command) (*extool.Result, error) {
		captured = cmd
		return &extool.Result{}, nil
	})
	downloader := NewDownloader(runner, testTools(), "", zap.NewNop())

	req := core.DownloadRequest{Link: medialink.Classify(rickURL)}
	if err := downloader.Download(context.Background(), req); err != nil {
		t.Fatalf("Download() unexpected error: %v", err)
	}

	expectedArgs := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-warnings",
		"--extractor-args", "youtube:player_client=android",
		"--user-agent", core.DefaultUserAgent,
		rickURL,
	}
	if !reflect.DeepEqual(captured.Args, expectedArgs) {
		t.Errorf("Args = %q, want %q", captured.Args, expectedArgs)
	}
	if captured.Dir != "/tmp/music" {
		t.Errorf("Dir = %q, want /tmp/music", captured.Dir)
	}
	if captured.Timeout != 300*time.Second {
		t.Errorf("Timeout = %v, want 300s", captured.Timeout)
	}
}

func TestDownloader_DownloadFailure(t *testing.T) {
	runner := extool.RunnerFunc(func(context.Context, extool.Command) (*extool.Result, error) {
		return nil, &extool.Error{
			Tool:     "yt-dlp",
			ExitCode: 1,
			Stderr:   "ERROR: ffprobe and ffmpeg not found",
			Err:      extool.ErrExit,
		}
	})
	downloader := NewDownloader(runner, testTools(), "", zap.NewNop())

	err := downloader.Download(context.Background(), core.DownloadRequest{Link: medialink.Classify(rickURL)})
	if core.ReasonOf(err) != core.ReasonToolFailed {
		t.Fatalf("Download() reason = %q, want %q", core.ReasonOf(err), core.ReasonToolFailed)
	}
	var fetchErr *core.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Detail != "ERROR: ffprobe and ffmpeg not found" {
		t.Errorf("Detail = %q", fetchErr.Detail)
	}
}
