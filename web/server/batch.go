package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/probe"
)

// maxBatchBody caps the size of a batch request
const maxBatchBody = 8 << 20

// BatchRequest is the JSON body of a batch request
type BatchRequest struct {
	Rays []probe.RaySpec `json:"rays"`
}

// BatchSummary is sent as the final event of a batch
type BatchSummary struct {
	Rays         int     `json:"rays"`
	Hits         int     `json:"hits"`
	Misses       int     `json:"misses"`
	MinDistance  float64 `json:"minDistance"` // Zero without hits
	MaxDistance  float64 `json:"maxDistance"`
	MeanDistance float64 `json:"meanDistance"`
	ElapsedMs    int64   `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "result", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleBatch casts every ray in the posted body and streams the results via SSE.
// Console output from the batch comes first, then one "result" event per ray in input
// order and a closing "complete" event.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	s.setSSEHeaders(w)
	ctx := r.Context()

	// Single writer goroutine owns w
	sseEventChan := make(chan SSEEvent, 100)
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		writer.Wait()
	}()

	consoleChan, webLogger := s.setupConsoleLogging()
	var console sync.WaitGroup
	console.Add(1)
	go func() {
		defer console.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	startTime := time.Now()
	results, err := s.prober.LoggingTo(webLogger).RunBatch(ctx, req.Rays)
	close(consoleChan)
	console.Wait()

	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", map[string]string{"error": err.Error()})
		return
	}

	for _, result := range results {
		s.sendEvent(ctx, sseEventChan, "result", newCastResponse(result))
	}

	stats := probe.Summarize(results)
	summary := BatchSummary{
		Rays:         stats.Rays,
		Hits:         stats.Hits,
		Misses:       stats.Misses,
		MaxDistance:  stats.MaxDistance,
		MeanDistance: stats.MeanDistance,
		ElapsedMs:    time.Since(startTime).Milliseconds(),
	}
	if stats.Hits > 0 {
		summary.MinDistance = stats.MinDistance
	}
	s.sendEvent(ctx, sseEventChan, "complete", summary)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a batch
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	batchID := fmt.Sprintf("batch-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(batchID, consoleChan, s.logger)
}

// sendEvent marshals data and queues it, giving up once the client is gone
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Printf("Error marshaling %s event: %v\n", eventType, err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(payload)}:
	case <-ctx.Done():
	}
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until consoleChan closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				return
			}
			s.sendEvent(ctx, sseEventChan, "console", consoleMsg)
		case <-ctx.Done():
			return
		}
	}
}
