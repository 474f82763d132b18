package skype

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var formatters = map[string][2]string{
	"bold":   {"<b>", "</b>"},
	"italic": {"<i>", "</i>"},
}

// WrapFormatter joins text with spaces and wraps it in the markup for kind.
// Unknown kinds return the joined text unchanged.
func WrapFormatter(kind string, text ...string) string {
	joined := strings.Join(text, " ")
	tags, ok := formatters[kind]
	if !ok {
		return joined
	}
	return tags[0] + joined + tags[1]
}

// Attribution returns the bold sender prefix used for forwarded messages.
func Attribution(sender, source string) string {
	return WrapFormatter("bold", sender) + "@" + source + ": "
}

// EncodeContent escapes text for the send endpoint. The web client's
// renderer unescapes twice, so the text is escaped twice.
func EncodeContent(text string) string {
	return html.EscapeString(html.EscapeString(text))
}

// DecodeContent unescapes inbound message content once.
func DecodeContent(content string) string {
	return html.UnescapeString(content)
}

// Elements the web client emits that are not part of the HTML vocabulary.
var skypeMarkup = map[string]bool{
	"ss":                     true,
	"at":                     true,
	"quote":                  true,
	"legacyquote":            true,
	"uriobject":              true,
	"e_m":                    true,
	"partlist":               true,
	"addmember":              true,
	"deletemember":           true,
	"topicupdate":            true,
	"historydisclosedupdate": true,
	"joiningenabledupdate":   true,
}

func isMarkup(name []byte) bool {
	return atom.Lookup(name) != 0 || skypeMarkup[string(name)]
}

// StripMarkup removes HTML and Skype markup elements, keeping their text.
// Tag-like text that is not a known element, such as "<hi>", survives.
// Text is copied raw: entities were already decoded by DecodeContent and
// must not be decoded a second time.
func StripMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			// An unterminated tag at end of input is returned as raw text.
			b.Write(z.Raw())
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			raw := append([]byte(nil), z.Raw()...)
			name, _ := z.TagName()
			if !isMarkup(name) {
				b.Write(raw)
			}
		case html.CommentToken:
			// Text such as "</3" or "<!x" tokenizes as a bogus comment.
			if raw := z.Raw(); !bytes.HasPrefix(raw, []byte("<!--")) {
				b.Write(raw)
			}
		case html.DoctypeToken:
		}
	}
}
