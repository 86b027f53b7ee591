package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"musicone/internal/core"
)

const (
	maxRequestBodySize = 1 << 20

	msgRunningWithAPI  = "MusicOne API is running with YouTube API"
	msgRunningToolOnly = "MusicOne API is running with yt-dlp only"
	msgURLRequired     = "URL is required"
	msgInternalError   = "Internal server error"
)

type linkRequest struct {
	URL string `json:"url"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	resolver   SongResolver
	downloader SongDownloader
	logger     *zap.Logger
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	message := msgRunningToolOnly
	if h.resolver.HasYouTubeAPI() {
		message = msgRunningWithAPI
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: message})
}

func (h *handlers) songInfo(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	track, err := h.resolver.Resolve(r.Context(), link)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	link, ok := decodeLink(w, r)
	if !ok {
		return
	}

	message, err := h.downloader.Download(r.Context(), link)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// decodeLink reads {"url": ...}. An unreadable body is treated like a missing URL.
func decodeLink(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req linkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgURLRequired})
		return "", false
	}
	return req.URL, true
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	var resErr *core.ResolutionError
	if !errors.As(err, &resErr) {
		h.logger.Error("Unexpected handler error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternalError})
		return
	}

	if resErr.Kind == core.KindUpstream {
		h.logger.Warn("Request failed upstream",
			zap.String("kind", resErr.Kind.String()),
			zap.Strings("attempted", resErr.AttemptedAdapters()),
			zap.Error(resErr.Err))
	}
	writeJSON(w, resErr.HTTPStatus(), errorResponse{Error: resErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
