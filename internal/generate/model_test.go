package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// scriptedModel answers each round-trip through a respond func keyed on the
// system message and the latest human message. It records every call so tests
// can assert how often and with what context the backend was hit.
type scriptedModel struct {
	respond func(system, last string) (string, bool)
	calls   []scriptedCall
}

type scriptedCall struct {
	system string
	last   string
	count  int // messages in the call, history included
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	system := ""
	if len(messages) > 0 && messages[0].Role == llms.ChatMessageTypeSystem {
		system = partText(messages[0])
	}
	last := ""
	if len(messages) > 0 {
		last = partText(messages[len(messages)-1])
	}
	m.calls = append(m.calls, scriptedCall{system: system, last: last, count: len(messages)})

	reply, ok := m.respond(system, last)
	if !ok {
		return nil, fmt.Errorf("no scripted response for message: %.120s", last)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func partText(m llms.MessageContent) string {
	for _, part := range m.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// fencedFile renders a labeled file block the way the backend is instructed
// to return files.
func fencedFile(name, tag, content string) string {
	return fmt.Sprintf("**%s**\n```%s\n%s\n```", name, tag, content)
}

// containsAll reports whether s contains every needle.
func containsAll(s string, needles ...string) bool {
	for _, needle := range needles {
		if !strings.Contains(s, needle) {
			return false
		}
	}
	return true
}
