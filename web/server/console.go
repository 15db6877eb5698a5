package server

import (
	"fmt"
	"time"

	"github.com/df07/go-spatial/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	batchID     string
	consoleChan chan<- ConsoleMessage
	server      core.Logger
}

// NewWebLogger creates a logger for one batch. Messages also go to server, which may be nil.
func NewWebLogger(batchID string, consoleChan chan<- ConsoleMessage, server core.Logger) core.Logger {
	if server == nil {
		server = core.NopLogger{}
	}
	return &WebLogger{
		batchID:     batchID,
		consoleChan: consoleChan,
		server:      server,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	wl.server.Printf("[%s] %s", wl.batchID, message)

	// Non-blocking; a full channel drops the message
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Message:   message,
			Timestamp: time.Now(),
			Level:     "info",
		}:
		default:
		}
	}
}
