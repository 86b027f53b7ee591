package medialink

import (
	"regexp"
	"strings"
)

const (
	spotifyDomainToken = "spotify.com"
	youtubeDomainToken = "youtube.com"
	youtuBeDomainToken = "youtu.be"
)

// videoIDPatterns are tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`youtu\.be/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/v/([\w-]+)`),
}

// IsSpotifyURL reports whether the link mentions the Spotify web domain anywhere.
func IsSpotifyURL(rawURL string) bool {
	return strings.Contains(rawURL, spotifyDomainToken)
}

// IsYouTubeURL reports whether the link mentions either YouTube domain anywhere.
func IsYouTubeURL(rawURL string) bool {
	return strings.Contains(rawURL, youtubeDomainToken) || strings.Contains(rawURL, youtuBeDomainToken)
}

// Classify determines the provider of a link. Spotify is checked before YouTube, so a link
// carrying both domain tokens is always Spotify.
func Classify(rawURL string) ClassifiedURL {
	switch {
	case IsSpotifyURL(rawURL):
		return ClassifiedURL{URL: rawURL, Kind: KindSpotify}
	case IsYouTubeURL(rawURL):
		videoID, _ := ExtractVideoID(rawURL)
		return ClassifiedURL{URL: rawURL, Kind: KindYouTube, VideoID: videoID}
	default:
		return ClassifiedURL{URL: rawURL, Kind: KindUnsupported}
	}
}

// ExtractVideoID pulls the video identifier out of watch, youtu.be, embed and /v/ links.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if matches := pattern.FindStringSubmatch(rawURL); len(matches) == 2 {
			return matches[1], true
		}
	}
	return "", false
}

// SpotifyTrackID returns the last path segment of a Spotify link with any query string cut off.
// "https://open.spotify.com/track/abc123?si=xyz" yields "abc123".
func SpotifyTrackID(rawURL string) string {
	segment := rawURL
	if idx := strings.LastIndex(rawURL, "/"); idx >= 0 {
		segment = rawURL[idx+1:]
	}
	if idx := strings.Index(segment, "?"); idx >= 0 {
		segment = segment[:idx]
	}
	return segment
}
