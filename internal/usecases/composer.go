package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"github.com/ObisDevs/Salesboy-sub000/internal/interfaces"
)

const knowledgeBaseHeader = "KNOWLEDGE BASE:"

var (
	placeholderPattern = regexp.MustCompile(`\[(?:Your Name|Name)\]`)
	signOffPattern     = regexp.MustCompile(`(?im)^[ \t]*(?:(?:best|kind|warm) regards|sincerely),?[ \t]*$`)
	trailingSignOff    = regexp.MustCompile(`(?i)([.!?])[ \t]+(?:(?:best|kind|warm) regards|sincerely),?$`)
	blankLinesPattern  = regexp.MustCompile(`\n{3,}`)
)

// ResponseComposer turns retrieved knowledge and conversation context into
// the final chat reply.
type ResponseComposer struct {
	llm interfaces.AIClient
}

func NewResponseComposer(llm interfaces.AIClient) *ResponseComposer {
	return &ResponseComposer{llm: llm}
}

func (c *ResponseComposer) Compose(ctx context.Context, in entities.ComposeInput) (string, error) {
	var systemPrompt string
	if in.Retrieval != nil {
		systemPrompt = in.Retrieval.SystemPrompt
	}

	gen, err := c.llm.Generate(ctx, interfaces.GenerateRequest{
		Prompt:       BuildComposePrompt(in),
		SystemPrompt: systemPrompt,
		Temperature:  interfaces.Temperature(in.Temperature),
		MaxTokens:    in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("compose response: %w", err)
	}
	return CleanResponse(gen.Content), nil
}

// BuildComposePrompt lays out reference memory, recent context, knowledge,
// greeting rule, the customer message and the history rule, in that order.
func BuildComposePrompt(in entities.ComposeInput) string {
	var blocks []string

	full := strings.TrimSpace(in.FullHistory)
	recent := strings.TrimSpace(in.RecentContext)
	if full != "" && full != recent {
		blocks = append(blocks, "REFERENCE MEMORY (older conversation, background only, not the current topic):\n"+full)
	}
	if recent != "" {
		blocks = append(blocks, "RECENT CONVERSATION:\n"+recent)
	}

	if in.Retrieval != nil && len(in.Retrieval.Chunks) > 0 {
		var sb strings.Builder
		sb.WriteString(knowledgeBaseHeader)
		for i, chunk := range in.Retrieval.Chunks {
			label := chunk.SourceLabel
			if label == "" {
				label = "document"
			}
			fmt.Fprintf(&sb, "\n[%d] (source: %s)\n%s", i+1, label, chunk.Text)
		}
		blocks = append(blocks, sb.String())
	}

	if in.IsNewConversation {
		blocks = append(blocks, "This is a new conversation. You may greet the customer briefly.")
	} else {
		blocks = append(blocks, "This conversation is ongoing. Do not greet the customer again; continue naturally.")
	}

	blocks = append(blocks, "CUSTOMER MESSAGE:\n"+in.Message)
	blocks = append(blocks, "Only mention earlier parts of the conversation if the customer explicitly asks about them. Reply as a WhatsApp message, without email-style sign-offs.")

	return strings.Join(blocks, "\n\n")
}

// CleanResponse strips email boilerplate models sometimes add to chat replies.
func CleanResponse(s string) string {
	s = placeholderPattern.ReplaceAllString(s, "")
	s = signOffPattern.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	s = trailingSignOff.ReplaceAllString(strings.TrimSpace(s), "$1")
	return strings.TrimSpace(s)
}
