package core

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Sampling temperature applied to every provider. No other generation
// parameter is configurable.
const defaultTemperature = 0.7

type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of the context sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatModel is a chat-capable model handle bound to one provider and one
// credential: it takes an ordered message list and returns a single reply.
type ChatModel interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// ModelSpec is a parsed "<provider>/<model>" identifier.
type ModelSpec struct {
	Provider Provider
	Name     string
}

func (m ModelSpec) String() string {
	return string(m.Provider) + "/" + m.Name
}

// ParseModelName splits a provider-prefixed model identifier. Identifiers
// without a known provider prefix yield an *UnsupportedModelError.
func ParseModelName(modelName string) (ModelSpec, error) {
	provider, name, ok := strings.Cut(modelName, "/")
	if !ok || name == "" {
		return ModelSpec{}, &UnsupportedModelError{Model: modelName}
	}

	switch p := Provider(provider); p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return ModelSpec{Provider: p, Name: name}, nil
	default:
		return ModelSpec{}, &UnsupportedModelError{Model: modelName}
	}
}

// ModelConstructor builds a model handle for a parsed spec. It must not
// perform network I/O.
type ModelConstructor func(spec ModelSpec, apiKey string) (ChatModel, error)

// NewChatModel is the production ModelConstructor.
func NewChatModel(spec ModelSpec, apiKey string) (ChatModel, error) {
	switch spec.Provider {
	case ProviderOpenAI:
		return newOpenAIModel(spec.Name, openai.DefaultConfig(apiKey)), nil
	case ProviderAnthropic:
		return newAnthropicModel(spec.Name, apiKey), nil
	case ProviderGoogle:
		return newGeminiModel(spec.Name, apiKey), nil
	default:
		return nil, &UnsupportedModelError{Model: spec.String()}
	}
}
