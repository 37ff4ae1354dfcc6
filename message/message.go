package message

import (
	"fmt"
	"strings"
	"time"
)

// Received is a message received from Telegram.
type Received struct {
	// ID is the Telegram message ID, unique within the chat.
	ID int
	// Chat is the chat in which the message was sent.
	Chat int64
	// Sender is the user ID of the message sender.
	Sender int64
	// Name is the first name of the message sender.
	Name string
	// Text is the text of the message.
	Text string
	// Timestamp is the timestamp of the message as seconds since the Unix
	// epoch, which is the unit Telegram transmits.
	Timestamp int64
}

func (m *Received) Time() time.Time {
	return time.Unix(m.Timestamp, 0)
}

// Sent is a message to be sent to a chat.
type Sent struct {
	// To is the chat to which the message is sent.
	To int64
	// Text is the message text.
	Text string
}

// formatString is a type to prevent misuse of format strings passed to [Format].
type formatString string

// Format constructs a message to send from a format string literal and
// formatting arguments.
func Format(to int64, f formatString, args ...any) Sent {
	return Sent{
		To:   to,
		Text: strings.TrimSpace(fmt.Sprintf(string(f), args...)),
	}
}
