package skype

import (
	"strings"

	"github.com/tinyland-inc/skybridge/pkg/logger"
)

const (
	resourceNewMessage = "NewMessage"
	messageTypeText    = "Text"
	messageTypeRich    = "RichText"

	contactsSegment      = "/contacts/"
	conversationsSegment = "/conversations/"
)

// Normalize turns a raw poll event into a canonical message. It reports
// false for events that are filtered out: anything that is not a text
// message, messages sent by self, messages from rooms other than room, and
// messages without content.
func Normalize(ev Event, self, room string) (Message, bool) {
	if ev.ResourceType != resourceNewMessage {
		return Message{}, false
	}
	res := ev.Resource
	if res.MessageType != messageTypeText && res.MessageType != messageTypeRich {
		return Message{}, false
	}

	sender, ok := segmentAfter(res.From, contactsSegment)
	if !ok {
		return Message{}, false
	}
	sender = stripTypePrefix(sender)
	if sender == self {
		return Message{}, false
	}

	msgRoom, ok := segmentAfter(res.ConversationLink, conversationsSegment)
	if !ok || msgRoom != room {
		logger.DebugCF("skype", "Dropping message from other room", map[string]any{
			"room":       msgRoom,
			"configured": room,
		})
		return Message{}, false
	}

	if res.Content == "" {
		logger.WarnCF("skype", "Message without content", map[string]any{
			"id":     ev.ID,
			"sender": sender,
		})
		return Message{}, false
	}

	return Message{
		Sender: sender,
		Room:   msgRoom,
		Text:   StripMarkup(DecodeContent(res.Content)),
	}, true
}

func segmentAfter(link, marker string) (string, bool) {
	_, rest, found := strings.Cut(link, marker)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// stripTypePrefix removes the numeric contact type ("8:" for Skype users)
// from a contact identifier.
func stripTypePrefix(id string) string {
	prefix, rest, found := strings.Cut(id, ":")
	if !found || prefix == "" {
		return id
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return id
		}
	}
	return rest
}
