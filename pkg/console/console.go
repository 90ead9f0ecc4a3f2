package console

// Style tags a message for presentation. Front-ends map styles to
// colors; the engine only records them.
type Style string

const (
	StyleNormal  Style = ""
	StyleWarning Style = "warning"
	StyleFlavor  Style = "flavor" // ambient agent tics, timed room beats
	StyleAction  Style = "action" // scenery action text
	StyleHeader  Style = "header"
	StyleGoal    Style = "goal"
	StyleSuccess Style = "success"
	StyleDebug   Style = "debug"
)

// Message is a single unit of engine output.
type Message struct {
	Text  string `json:"text"`
	Style Style  `json:"style,omitempty"`
	// Pause asks the front-end to wait for a keypress before showing
	// this message. Used between paginated sections.
	Pause bool `json:"pause,omitempty"`
}

// Buffer collects engine output for one session. Each command drains
// the buffer after processing, so a Buffer never outlives a command
// round trip. Not safe for concurrent use; sessions are single-writer.
type Buffer struct {
	msgs      []Message
	nextPause bool
}

// NewBuffer returns an empty output buffer.
func NewBuffer() *Buffer {
	return &Buffer{msgs: make([]Message, 0, 8)}
}

// Print appends an unstyled message.
func (b *Buffer) Print(text string) {
	b.PrintStyled(text, StyleNormal)
}

// PrintStyled appends a message with the given style.
func (b *Buffer) PrintStyled(text string, style Style) {
	msg := Message{Text: text, Style: style, Pause: b.nextPause}
	b.nextPause = false
	b.msgs = append(b.msgs, msg)
}

// Warning appends a player-input soft failure message.
func (b *Buffer) Warning(text string) {
	b.PrintStyled(text, StyleWarning)
}

// Pause marks the next message as requiring a keypress first.
func (b *Buffer) Pause() {
	b.nextPause = true
}

// Len reports the number of buffered messages.
func (b *Buffer) Len() int {
	return len(b.msgs)
}

// Messages returns the buffered messages without draining them.
func (b *Buffer) Messages() []Message {
	return b.msgs
}

// Drain returns all buffered messages and resets the buffer.
func (b *Buffer) Drain() []Message {
	out := b.msgs
	b.msgs = make([]Message, 0, 8)
	b.nextPause = false
	return out
}
