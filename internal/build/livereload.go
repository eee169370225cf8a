package build

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// LiveReloadScript is served at /livereload.js and reloads the page whenever
// the server broadcasts a new build stamp.
const LiveReloadScript = `(function () {
  var es = new EventSource('/livereload');
  var current = null;
  es.onmessage = function (ev) {
    var data = JSON.parse(ev.data);
    if (current === null) { current = data.stamp; return; }
    if (data.stamp !== current) { location.reload(); }
  };
})();
`

// liveReloadHub manages SSE clients for rebuild broadcasts.
type liveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*lrClient
	closed    bool
	lastStamp string
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func newLiveReloadHub() *liveReloadHub {
	return &liveReloadHub{clients: map[int]*lrClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload
func (h *liveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	current := h.lastStamp
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	h.mu.Unlock()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"stamp\":\"" + current + "\"}\n\n"); err != nil {
			slog.Debug("livereload write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			h.removeClient(client.id)
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload ping write", "error", err)
			}
		case stamp := <-client.ch:
			if _, err := bw.WriteString("data: {\"stamp\":\"" + stamp + "\"}\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload broadcast write", "error", err)
			}
		}
	}
}

func (h *liveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// broadcast sends a new build stamp to all clients (drops clients whose
// channels are full).
func (h *liveReloadHub) broadcast(stamp string) {
	h.mu.Lock()
	if h.closed || stamp == "" || stamp == h.lastStamp {
		h.mu.Unlock()
		return
	}
	h.lastStamp = stamp
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		select {
		case c.ch <- stamp:
		default:
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", "stamp", stamp, "clients", len(snapshot))
}

// shutdown closes all clients and prevents future broadcasts.
func (h *liveReloadHub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.done)
	}
}
