package stream

import (
	"fmt"
	"net/http"
	"time"
)

// HandleSSE streams hub events to the client as server-sent events. The
// connection stays open until the client disconnects or the hub shuts
// down.
func (h *Hub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := &Client{
		hub:  h,
		send: make(chan []byte, 64),
	}
	if !h.join(client) {
		http.Error(w, "stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer h.leave(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if origin := r.Header.Get("Origin"); h.allowedOrigins[origin] {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}

	h.logger.Debugw("sse connection established")
	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debugw("sse client disconnected")
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case message, open := <-client.send:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", message)
			flusher.Flush()
		}
	}
}
