// internal/workers/conversation/process-chat-message/models.go
package processchatmessage

// Input is one user message. MessageID identifies the delivery; Handle defaults it to the job
// key so a job delivered again after a lost completion is not applied twice.
type Input struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message"`
}

type Output struct {
	SessionID string         `json:"sessionId"`
	Replies   []ReplyMessage `json:"replies"`
	Ended     bool           `json:"ended"`
}

type ReplyMessage struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
}
