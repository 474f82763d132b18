package skype

import (
	"context"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tinyland-inc/skybridge/pkg/logger"
)

// SendOptions control how outbound text is attributed and encoded.
type SendOptions struct {
	// Sender and Source, when both set, prefix the text with
	// "<b>Sender</b>@Source: ".
	Sender string
	Source string
	// Raw marks bot-authored content that already is valid markup. It is
	// sent without entity encoding.
	Raw bool
}

type sendBody struct {
	HasMentions     bool   `json:"Has-Mentions"`
	MessageType     string `json:"messagetype"`
	IMDisplayName   string `json:"imdisplayname"`
	ClientMessageID string `json:"clientmessageid"`
	ContentType     string `json:"contenttype"`
	Content         string `json:"content"`
}

// messageIDs hands out client message ids derived from the wall clock in
// milliseconds. Two calls within the same millisecond get consecutive ids,
// so ids are strictly increasing for the life of the session.
type messageIDs struct {
	last atomic.Int64
}

func (m *messageIDs) next(now time.Time) int64 {
	candidate := now.UnixMilli()
	for {
		last := m.last.Load()
		id := candidate
		if id <= last {
			id = last + 1
		}
		if m.last.CompareAndSwap(last, id) {
			return id
		}
	}
}

// FormatContent applies attribution and encoding to outbound text.
func FormatContent(text string, opts SendOptions) string {
	content := text
	if opts.Sender != "" && opts.Source != "" {
		content = Attribution(opts.Sender, opts.Source) + text
	}
	if opts.Raw {
		return content
	}
	return EncodeContent(content)
}

// Send posts text to the configured room.
func (s *Session) Send(ctx context.Context, text string, opts SendOptions) error {
	return s.SendTo(ctx, s.cfg.Room, text, opts)
}

// Forward relays a message written by sender on another network.
func (s *Session) Forward(ctx context.Context, sender, text, source string) error {
	return s.Send(ctx, text, SendOptions{Sender: sender, Source: source})
}

// SendTo posts text to room. Failures are logged and returned as
// *SendError; the message is not retried.
func (s *Session) SendTo(ctx context.Context, room, text string, opts SendOptions) error {
	if !s.store.Ready() {
		logger.WarnCF("skype", "Send before session ready", map[string]any{"room": room})
		return ErrNotReady
	}

	body := sendBody{
		HasMentions:     false,
		MessageType:     "RichText",
		IMDisplayName:   s.cfg.DisplayName,
		ClientMessageID: strconv.FormatInt(s.ids.next(s.now()), 10),
		ContentType:     "text",
		Content:         FormatContent(text, opts),
	}

	sendURL := s.gatewayURL("/v1/users/ME/conversations/" + url.PathEscape(room) + "/messages")
	resp, err := doRequest(ctx, s.client, sendURL, s.store.Snapshot(), body)
	if err != nil {
		logger.ErrorCF("skype", "Send request failed", map[string]any{
			"room":  room,
			"error": err.Error(),
		})
		return &SendError{Room: room, Err: err}
	}
	if !resp.ok() {
		logger.ErrorCF("skype", "Send request rejected", map[string]any{
			"room":              room,
			"status":            resp.StatusCode,
			"client_message_id": body.ClientMessageID,
			"response":          string(resp.Body),
		})
		return &SendError{Room: room, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	logger.DebugCF("skype", "Message sent", map[string]any{
		"room":              room,
		"client_message_id": body.ClientMessageID,
	})
	return nil
}
