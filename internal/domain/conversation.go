package domain

// FileInfo describes an attachment persisted alongside a user message.
type FileInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Message is one turn in a session's timeline (user or bot).
type Message struct {
	Role      Role
	Content   string
	CreatedAt Timestamp

	// ModelName is set on bot messages only.
	ModelName string
	// File is set on user messages that carried an attachment.
	File *FileInfo
}

// Session is a persisted, ordered conversation thread.
// Messages only grow: the engine appends (user, bot) pairs and never
// edits in place, except for a full clear.
type Session struct {
	ID        SessionID
	Name      string
	Messages  []Message
	CreatedAt Timestamp
}

// Attachment is a transient inbound upload. It is never stored as-is;
// it produces either extracted prompt text (documents) or an inline
// media part handed to a cloud backend.
type Attachment struct {
	Filename string
	MIME     string
	Data     []byte
}

// Reply is a transient backend reply.
type Reply struct {
	Text    string
	Latency int64 // milliseconds
}

// StreamToken is one unit of incrementally produced text. A token with
// a non-nil Err terminates generation; Done marks a clean end of stream.
type StreamToken struct {
	Text string
	Done bool
	Err  error
}
