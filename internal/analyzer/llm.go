package analyzer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const signalPrompt = `You are checking whether a web page accepts externally authored guest content. Look for invitations to contribute articles, submission instructions, or editorial guidelines for outside writers.

Respond with exactly one word: YES or NO.`

const maxSignalChars = 4000

// ClaudeChecker implements SignalChecker with a single cheap completion.
type ClaudeChecker struct {
	client anthropic.Client
	model  string
}

// NewClaudeChecker creates a ClaudeChecker using the given model.
func NewClaudeChecker(client anthropic.Client, model string) *ClaudeChecker {
	return &ClaudeChecker{client: client, model: model}
}

// HasGuestPostSignal asks the model whether the page invites guest content.
func (c *ClaudeChecker) HasGuestPostSignal(ctx context.Context, title, content string) (bool, error) {
	if len(content) > maxSignalChars {
		content = content[:maxSignalChars]
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 5,
		System:    signalPrompt,
		Prompt:    "Title: " + title + "\n\nContent:\n" + content,
	})
	if err != nil {
		return false, eris.Wrap(err, "analyzer: llm signal check")
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Text))
	return strings.HasPrefix(answer, "YES"), nil
}
