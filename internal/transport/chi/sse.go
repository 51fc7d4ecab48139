package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/uiaudit/lenny/internal/domain"
)

// eventWriter writes stream events as server-sent events, one "data:" frame each.
type eventWriter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *zap.Logger
	broken bool
}

func newEventWriter(w http.ResponseWriter, logger *zap.Logger) *eventWriter {
	return &eventWriter{w: w, rc: http.NewResponseController(w), logger: logger}
}

// drain writes every event until the channel closes. After the first write
// failure it cancels the producer and discards the rest.
func (e *eventWriter) drain(events <-chan domain.StreamEvent, cancel context.CancelFunc) {
	for ev := range events {
		if e.broken {
			continue
		}
		if err := e.write(ev); err != nil {
			e.logger.Debug("Event stream write failed", zap.String("event", string(ev.Type)), zap.Error(err))
			e.broken = true
			cancel()
		}
	}
}

func (e *eventWriter) write(ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := e.rc.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return nil
}
