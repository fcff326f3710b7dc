package consumer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

// ErrInvalidEvent marks payloads that can never be stored. They are acked
// and dropped instead of redelivered.
var ErrInvalidEvent = errors.New("invalid activity event")

// ActivityEvent is the review event published by the platform backend.
type ActivityEvent struct {
	Type         string `json:"type"`
	UserID       any    `json:"userId"`
	ContentID    any    `json:"contentId"`
	ContentTitle string `json:"contentTitle"`
	Rating       any    `json:"rating"`
	ReviewText   string `json:"reviewText"`
	ContentType  string `json:"contentType"`
	Timestamp    string `json:"timestamp"`
}

// ParseEvent decodes a payload and checks the fields a review needs.
func ParseEvent(payload []byte) (ActivityEvent, error) {
	var ev ActivityEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ActivityEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if ev.User() == "" {
		return ActivityEvent{}, fmt.Errorf("%w: missing userId", ErrInvalidEvent)
	}
	if ev.Content() == "" {
		return ActivityEvent{}, fmt.Errorf("%w: missing contentId", ErrInvalidEvent)
	}
	if _, err := ev.rating(); err != nil {
		return ActivityEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return ev, nil
}

func (e ActivityEvent) User() string    { return idString(e.UserID) }
func (e ActivityEvent) Content() string { return idString(e.ContentID) }

// Title falls back to a placeholder built from the content id.
func (e ActivityEvent) Title() string {
	if t := strings.TrimSpace(e.ContentTitle); t != "" {
		return t
	}
	return "MovieID_" + e.Content()
}

func (e ActivityEvent) rating() (*float64, error) {
	switch v := e.Rating.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("rating %q is not a number", v)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("rating has type %T", v)
	}
}

// Review maps the event onto a review write.
func (e ActivityEvent) Review() retrieval.ReviewInput {
	text := e.ReviewText
	if strings.TrimSpace(text) == "" {
		text = consts.DefaultReviewText
	}
	rating, _ := e.rating()
	return retrieval.ReviewInput{
		UserID: e.User(),
		Title:  e.Title(),
		Text:   text,
		Rating: rating,
	}
}

// idString accepts ids sent as JSON strings or numbers.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case bool, nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
