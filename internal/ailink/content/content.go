// Package content defines provider-agnostic message content types.
package content

// BlockKind distinguishes where a text block came from in a provider response.
type BlockKind string

const (
	// KindText is regular assistant output.
	KindText BlockKind = "text"
	// KindReasoning is text recovered from reasoning/trace fields; usable only
	// as a last-resort answer candidate.
	KindReasoning BlockKind = "reasoning"
)

// Block is a single piece of response content.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text,omitempty"`
}

// Message is a chat message.
type Message struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// Text builds a single-block text message.
func Text(role, text string) Message {
	return Message{Role: role, Content: []Block{{Kind: KindText, Text: text}}}
}
