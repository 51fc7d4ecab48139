package domain

import (
	"encoding/json"
	"fmt"
)

// EventType tags a StreamEvent.
type EventType string

// Stream event types.
const (
	EventSources EventType = "sources"
	EventContent EventType = "content"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// SourceCitation is the caller-facing projection of a search hit.
type SourceCitation struct {
	ID            string   `json:"id"`
	Category      Category `json:"content_type"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	URL           string   `json:"url_or_path"`
	ScreenshotURL string   `json:"screenshot_url,omitempty"` // app content only
	Similarity    float64  `json:"similarity"`
}

// MarshalJSON encodes app citations with "screenshot_url" (null when unknown)
// and KB citations without it.
func (c SourceCitation) MarshalJSON() ([]byte, error) {
	if c.Category == CategoryArticle {
		return json.Marshal(struct {
			ID          string   `json:"id"`
			Category    Category `json:"content_type"`
			Title       string   `json:"title"`
			Description string   `json:"description"`
			URL         string   `json:"url_or_path"`
			Similarity  float64  `json:"similarity"`
		}{c.ID, c.Category, c.Title, c.Description, c.URL, c.Similarity})
	}

	var shot *string
	if c.ScreenshotURL != "" {
		shot = &c.ScreenshotURL
	}
	return json.Marshal(struct {
		ID            string   `json:"id"`
		Category      Category `json:"content_type"`
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		URL           string   `json:"url_or_path"`
		ScreenshotURL *string  `json:"screenshot_url"`
		Similarity    float64  `json:"similarity"`
	}{c.ID, c.Category, c.Title, c.Description, c.URL, shot, c.Similarity})
}

// StreamEvent is one message of the chat event stream.
// Only the payload field matching Type is meaningful.
type StreamEvent struct {
	Type    EventType
	Sources []SourceCitation
	Text    string
	Message string
}

// SourcesEvent creates a sources event. A nil list is sent as an empty array.
func SourcesEvent(sources []SourceCitation) StreamEvent {
	if sources == nil {
		sources = []SourceCitation{}
	}
	return StreamEvent{Type: EventSources, Sources: sources}
}

// ContentEvent creates a content event carrying a model text fragment.
func ContentEvent(text string) StreamEvent {
	return StreamEvent{Type: EventContent, Text: text}
}

// ErrorEvent creates an error event.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}

// DoneEvent creates the terminal event.
func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}

// MarshalJSON encodes the event as {"type": ..., <payload>}.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventSources:
		sources := e.Sources
		if sources == nil {
			sources = []SourceCitation{}
		}
		return json.Marshal(struct {
			Type    EventType        `json:"type"`
			Sources []SourceCitation `json:"sources"`
		}{e.Type, sources})
	case EventContent:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Text string    `json:"text"`
		}{e.Type, e.Text})
	case EventError:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	case EventDone:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
