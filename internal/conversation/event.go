package conversation

import "strings"

// EventKind distinguishes text messages from inline button presses.
type EventKind int

const (
	EventText EventKind = iota
	EventButton
)

func (k EventKind) String() string {
	if k == EventButton {
		return "button"
	}
	return "text"
}

// Event is one inbound user action.
type Event struct {
	Kind     EventKind
	Text     string
	Callback string
}

// TextEvent builds a text message event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// ButtonEvent builds a button press event.
func ButtonEvent(callback string) Event {
	return Event{Kind: EventButton, Callback: callback}
}

// Callback identifiers carried by inline buttons.
const (
	CallbackAdmin         = "admin"
	CallbackAddProduct    = "add_product"
	CallbackRemoveProduct = "remove_product"
	CallbackCancel        = "cancel"
)

// Button is one labeled inline button.
type Button struct {
	Label    string
	Callback string
}

// Keyboard is a set of button rows.
type Keyboard [][]Button

// Reply is one outbound message. Markdown marks MarkdownV2 text.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Markdown bool
}

// Commands understood by the engine.
const (
	CommandStart  = "start"
	CommandSearch = "search"
	CommandAdmin  = "admin"
)

// parseCommand splits "/name@bot args" into name and args.
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
