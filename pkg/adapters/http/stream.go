package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

// Event is the JSON payload pushed to /events subscribers.
type Event struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	DispatchID string    `json:"dispatch_id,omitempty"`
	Line       string    `json:"line,omitempty"`
	Route      string    `json:"route,omitempty"`
	Async      bool      `json:"async,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
}

// StreamManager fans dispatcher events out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

func (sm *StreamManager) publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "error", err)
		return
	}
	sm.Broadcast(string(data))
}

// Hooks returns lifecycle hooks that publish every dispatcher event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	registration := func(_ context.Context, e *domain.RegistrationEvent) {
		sm.publish(Event{
			Type:      string(e.Type),
			Timestamp: e.Timestamp,
			Route:     e.Route,
			Skipped:   e.Skipped,
			Error:     errString(e.Err),
		})
	}
	return domain.LifecycleHooks{
		OnRegister:   registration,
		OnUnregister: registration,
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			sm.publish(Event{
				Type:       string(e.Type),
				Timestamp:  e.Timestamp,
				DispatchID: e.DispatchID,
				Line:       e.Line,
				Route:      e.Route,
				Async:      e.Async,
				Error:      errString(e.Err),
				DurationMS: float64(e.Duration.Microseconds()) / 1000,
			})
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
