package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/cunhaax/dev-gpt/internal/logging"
)

// Session is one logical dialogue with the reasoning backend. It owns an
// ordered, append-only message history; every Send is a real round-trip
// carrying the full history. There is no retry at this layer — backend
// errors propagate uncaught, retry policy lives in the debug loop.
type Session struct {
	model    llms.Model
	messages []llms.MessageContent
	label    string
	callOpts []llms.CallOption
}

// SessionOptions configures a new Session.
type SessionOptions struct {
	// System seeds the history with a system message when non-empty.
	System string
	// Label tags this session's transcript entries in the run log.
	Label string
	// CallOptions are forwarded to every GenerateContent call.
	CallOptions []llms.CallOption
}

// NewSession creates a session with an optional seed system message.
func NewSession(model llms.Model, opts SessionOptions) *Session {
	s := &Session{
		model:    model,
		label:    opts.Label,
		callOpts: opts.CallOptions,
	}
	if s.label == "" {
		s.label = "conversation"
	}
	if opts.System != "" {
		s.messages = append(s.messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.System))
	}
	return s
}

// NewSessionWithHistory creates a session seeded with an existing message
// history. The slice is copied; the caller's history is not shared.
func NewSessionWithHistory(model llms.Model, history []llms.MessageContent, opts SessionOptions) *Session {
	s := NewSession(model, opts)
	s.messages = append(s.messages, history...)
	return s
}

// Send appends the outgoing message, performs the round-trip, appends the
// reply and returns its text.
func (s *Session) Send(ctx context.Context, text string, role llms.ChatMessageType) (string, error) {
	s.messages = append(s.messages, llms.TextParts(role, text))

	logger := logging.GetCurrentLogger()
	logger.LogRequest(s.label, string(role), text)

	resp, err := s.model.GenerateContent(ctx, s.messages, s.callOpts...)
	if err != nil {
		logger.LogError(s.label, err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("backend returned no completion choices")
		logger.LogError(s.label, err)
		return "", err
	}

	reply := resp.Choices[0].Content
	s.messages = append(s.messages, llms.TextParts(llms.ChatMessageTypeAI, reply))
	logger.LogResponse(s.label, reply)
	return reply, nil
}

// Chat sends a user-role message; the common case.
func (s *Session) Chat(ctx context.Context, text string) (string, error) {
	return s.Send(ctx, text, llms.ChatMessageTypeHuman)
}

// History returns a copy of the message history.
func (s *Session) History() []llms.MessageContent {
	out := make([]llms.MessageContent, len(s.messages))
	copy(out, s.messages)
	return out
}
