package bus

// InboundMessage is a chat message received from a channel, on its way to
// the host surfaces.
type InboundMessage struct {
	Channel   string            `json:"channel"`
	Sender    string            `json:"sender"`
	Room      string            `json:"room"`
	Text      string            `json:"text"`
	MessageID string            `json:"message_id,omitempty"` // assigned by the channel
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is a message a host surface wants delivered to a channel.
// Sender and Source, when set, attribute the text to a user on another
// network.
type OutboundMessage struct {
	Channel string `json:"channel"`
	Room    string `json:"room,omitempty"` // empty means the channel's configured room
	Text    string `json:"text"`
	Sender  string `json:"sender,omitempty"`
	Source  string `json:"source,omitempty"`
	Raw     bool   `json:"raw,omitempty"` // pre-formatted markup, sent unescaped
}
