package httpapi

import (
	"net/http"
	"time"

	"sagsin/internal/eventbus"
	"sagsin/pkg/apperror"
)

// keepaliveInterval matches the source controller's 15s q.get(timeout)
// idle window: long enough not to spam the wire, short enough that a
// proxy or browser never mistakes the connection for dead.
const keepaliveInterval = 15 * time.Second

// handleEvents serves the Server-Sent Events stream: a welcome comment,
// then every bus frame until the client disconnects, with a keepalive
// comment on a quiet bus.
func (h *Handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, apperror.Internal("response writer does not support streaming"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.bus.Subscribe()
	h.metrics.SetActiveSubscribers(h.bus.Count())
	defer func() {
		h.bus.Unsubscribe(sub)
		h.metrics.SetActiveSubscribers(h.bus.Count())
	}()

	_, _ = w.Write(eventbus.WelcomeFrame)
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, open := <-sub.Frames():
			if !open {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write(eventbus.KeepaliveFrame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
