package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	// ErrMissingURL is returned when a request carries no link at all.
	ErrMissingURL = errors.New("url is required")
	// ErrUnsupportedURL is returned for links that are neither Spotify nor YouTube.
	ErrUnsupportedURL = errors.New("unsupported url")
	// ErrInvalidYouTubeURL is returned for YouTube links with no extractable video ID.
	ErrInvalidYouTubeURL = errors.New("invalid youtube url")
	// ErrNoAdapter is returned when a branch has no adapter configured.
	ErrNoAdapter = errors.New("no adapter configured")

	errNoTrack = errors.New("adapter returned no track")
)

// FetchReason classifies why an adapter or downloader failed.
type FetchReason string

const (
	ReasonAuth       FetchReason = "auth"
	ReasonNotFound   FetchReason = "not_found"
	ReasonTransport  FetchReason = "transport"
	ReasonNoItems    FetchReason = "no_items"
	ReasonToolFailed FetchReason = "tool_failed"
	ReasonTimeout    FetchReason = "timeout"
	ReasonMalformed  FetchReason = "malformed"
)

// FetchError is the structured failure of a single adapter or downloader call.
type FetchError struct {
	Source string
	Reason FetchReason
	// Detail is diagnostic text (e.g. tool stderr). It is logged, and only surfaced to callers
	// where the route explicitly allows it.
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError.
func NewFetchError(source string, reason FetchReason, detail string, err error) *FetchError {
	return &FetchError{Source: source, Reason: reason, Detail: detail, Err: err}
}

// ReasonOf extracts the FetchReason from an error chain, or "" if there is none.
func ReasonOf(err error) FetchReason {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Reason
	}
	return ""
}

// ErrorKind is the caller-facing error class of a resolution or download.
type ErrorKind int

const (
	// KindInvalidInput covers missing, malformed and unsupported links.
	KindInvalidInput ErrorKind = iota
	// KindNotFound covers YouTube links with no video ID.
	KindNotFound
	// KindUpstream covers provider, subprocess and decoding failures.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind onto the status code the HTTP surface returns.
func (k ErrorKind) HTTPStatus() int {
	if k == KindUpstream {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// ResolutionError is what the orchestrators return. Message is safe to show to callers.
type ResolutionError struct {
	Kind     ErrorKind
	Message  string
	Attempts []ResolutionAttempt
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for this error's kind.
func (e *ResolutionError) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// AttemptedAdapters lists the adapters tried, in order.
func (e *ResolutionError) AttemptedAdapters() []string {
	return adapterNames(e.Attempts)
}

func invalidInput(message string, err error) *ResolutionError {
	return &ResolutionError{Kind: KindInvalidInput, Message: message, Err: err}
}

func upstreamFailure(message string, attempts []ResolutionAttempt, err error) *ResolutionError {
	return &ResolutionError{Kind: KindUpstream, Message: message, Attempts: attempts, Err: err}
}

// Snippet trims s and cuts it to at most maxLen bytes without splitting a UTF-8 sequence.
// A non-positive maxLen returns the trimmed text unchanged.
func Snippet(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
