package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// TaskDraft is a task suggested from free text. Drafts are never persisted
// by the generator.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskDraftGenerator turns free text into task drafts.
type TaskDraftGenerator interface {
	GenerateTaskDrafts(ctx context.Context, projectTitle, text string) ([]TaskDraft, error)
}

type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// GenerateTaskDrafts analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTaskDrafts(ctx context.Context, projectTitle, text string) ([]TaskDraft, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You are a task extraction assistant for the project "%s". Extract concrete tasks from the text below.

Text:
%s

Return the extracted tasks as a JSON array in this format:
[
  {
    "title": "short task title (at most 128 characters)",
    "description": "details of the task"
  }
]

Notes:
- Return an empty array [] when the text contains no tasks
- Return only JSON, without any explanation`, projectTitle, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseTaskDrafts(resp.Choices[0].Message.Content)
}

// parseTaskDrafts decodes the model output, tolerating a fenced code block.
func parseTaskDrafts(content string) ([]TaskDraft, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return drafts, nil
}
