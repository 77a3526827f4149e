package wicket

import "time"

// Side identifies which party authored a message.
type Side string

const (
	SideUser  Side = "user"
	SideAgent Side = "agent"
)

// Message is a single conversation entry as delivered by the backend.
// IDs are server-assigned and monotonically increasing within a
// conversation. Messages are immutable once received.
type Message struct {
	ID          int64
	From        Side
	Text        string
	Attachments []Attachment
	Timestamp   time.Time
}

// Attachment is a reference to a remote resource attached to a message.
type Attachment struct {
	URL  string
	Name string
}

// Upload is a file staged for sending. At most one upload accompanies
// a message.
type Upload struct {
	Name string
	Data []byte
}
