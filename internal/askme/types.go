package askme

import "encoding/json"

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the success body of POST /api/chat
type ChatResponse struct {
	Response *string `json:"response"`
}

// ErrorResponse is the body sent with non-2xx statuses. Detail is kept raw
// because some servers send a structured list instead of a string.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}
