package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiModel struct {
	model  string
	apiKey string
	opts   []option.ClientOption
}

func newGeminiModel(model, apiKey string, opts ...option.ClientOption) *geminiModel {
	return &geminiModel{model: model, apiKey: apiKey, opts: opts}
}

// Invoke opens a client per call so that constructing the handle stays free
// of network activity.
func (m *geminiModel) Invoke(ctx context.Context, messages []Message) (string, error) {
	system, history := toGeminiContents(messages)
	if len(history) == 0 {
		return "", fmt.Errorf("prompt history is empty for chat completion")
	}
	lastUserMessage := history[len(history)-1]
	if lastUserMessage.Role != "user" {
		return "", fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(m.apiKey)}, m.opts...)...)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("error closing GenAI client", "error", err)
		}
	}()

	model := client.GenerativeModel(m.model)
	model.SetTemperature(defaultTemperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	chatSession := model.StartChat()
	chatSession.History = history[:len(history)-1]

	resp, err := chatSession.SendMessage(ctx, lastUserMessage.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			slog.Debug("gemini response part was not text", "type", fmt.Sprintf("%T", part))
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty or non-text response")
	}
	return responseText.String(), nil
}

// toGeminiContents folds system messages into a single system instruction
// and maps the remaining turns onto Gemini's "user" / "model" roles.
func toGeminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return strings.Join(system, "\n\n"), history
}
