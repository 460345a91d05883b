package chat

// Sender tells who wrote a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Greeting seeds every new conversation.
const Greeting = "Hello! How can I help you today?"

// ErrorPrefix precedes failure text shown as a bot message.
const ErrorPrefix = "Error: "

// Message is one chat turn. Messages are never edited once appended.
// Failed marks a bot message that reports a failed request.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
	Failed bool   `json:"failed,omitempty"`
}

// RequestState guards submission: at most one request is in flight.
type RequestState int

const (
	Idle RequestState = iota
	InFlight
)

func (s RequestState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// State is a snapshot of the conversation for rendering
type State struct {
	SessionID string
	Messages  []Message
	Input     string
	Request   RequestState
	LastError string
	Recent    []string
}

// Loading reports whether a request is outstanding
func (s State) Loading() bool {
	return s.Request == InFlight
}
