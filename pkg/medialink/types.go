// Package medialink classifies media links by provider and decodes the small value formats
// those providers hand back.
package medialink

// Kind identifies which provider a link belongs to.
type Kind int

const (
	// KindUnsupported is any link that is neither Spotify nor YouTube.
	KindUnsupported Kind = iota
	// KindSpotify is a Spotify link.
	KindSpotify
	// KindYouTube is a YouTube link (youtube.com or youtu.be).
	KindYouTube
)

// String returns the lowercase provider name used in logs, metrics and JSON payloads.
func (k Kind) String() string {
	switch k {
	case KindSpotify:
		return "spotify"
	case KindYouTube:
		return "youtube"
	default:
		return "unsupported"
	}
}

// ClassifiedURL is the result of classifying a single link.
type ClassifiedURL struct {
	URL  string
	Kind Kind
	// VideoID is the YouTube video identifier. Empty when Kind is not KindYouTube or when
	// no known YouTube link shape matched.
	VideoID string
}

// HasVideoID reports whether a YouTube video identifier was extracted.
func (c ClassifiedURL) HasVideoID() bool {
	return c.Kind == KindYouTube && c.VideoID != ""
}
