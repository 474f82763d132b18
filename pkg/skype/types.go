package skype

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by operations that need session credentials
	// before the login capture has populated the header store.
	ErrNotReady = errors.New("skype: session credentials not captured yet")

	// ErrAcquisitionTimeout means the login watchdog expired before the
	// browser produced a usable credential set. It is not retryable: it
	// usually indicates wrong credentials or a changed login page.
	ErrAcquisitionTimeout = errors.New("skype: login watchdog expired before credentials were captured")
)

// Credentials is the header set and bearer token captured from the web
// client's own requests.
type Credentials struct {
	Headers    map[string]string
	SkypeToken string
}

// Message is the canonical form of a chat message after normalization.
type Message struct {
	Sender string `json:"sender"`
	Room   string `json:"room"`
	Text   string `json:"text"`
}

// Handler receives normalized inbound messages, one call per message, in
// server delivery order.
type Handler func(Message)

// PollResponse is the body of a subscription poll.
type PollResponse struct {
	ErrorCode     json.Number `json:"errorCode,omitempty"`
	EventMessages []Event     `json:"eventMessages,omitempty"`
}

type Event struct {
	ID           int64    `json:"id,omitempty"`
	Type         string   `json:"type,omitempty"`
	ResourceType string   `json:"resourceType"`
	ResourceLink string   `json:"resourceLink,omitempty"`
	Time         string   `json:"time,omitempty"`
	Resource     Resource `json:"resource"`
}

type Resource struct {
	MessageType      string `json:"messagetype"`
	Content          string `json:"content"`
	From             string `json:"from"`
	ConversationLink string `json:"conversationLink"`
	IMDisplayName    string `json:"imdisplayname,omitempty"`
}

// PollError wraps a transport failure on the poll request. The poll chain
// does not recover from it; restarting is up to the process supervisor.
type PollError struct {
	URL string
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("skype: poll request to %s failed: %v", e.URL, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// SendError describes a dropped outbound message.
type SendError struct {
	Room       string
	StatusCode int
	Body       string
	Err        error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skype: send to %s failed: %v", e.Room, e.Err)
	}
	return fmt.Sprintf("skype: send to %s returned status %d: %s", e.Room, e.StatusCode, e.Body)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
