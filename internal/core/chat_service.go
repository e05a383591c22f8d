package core

import (
	"context"
	"log/slog"
	"time"

	"riff.app/backend/internal/observability"
	"riff.app/backend/internal/store"
)

// SystemPromptSource resolves a flavor name to its system prompt. A missing
// prompt is reported through the boolean, never as an error.
type SystemPromptSource interface {
	SystemPrompt(ctx context.Context, name string) (string, bool)
}

// ChatDeps are the collaborators shared by every chat turn.
type ChatDeps struct {
	Messages MessageRepository
	Prompts  SystemPromptSource
	NewModel ModelConstructor           // defaults to NewChatModel
	Metrics  observability.TurnRecorder // defaults to a no-op recorder
}

// ChatConfig identifies the node a turn runs against and the model it uses.
type ChatConfig struct {
	NodeID    int64
	UserID    string
	ModelName string
	APIKey    string
	Flavor    string
}

// ChatService drives request/response turns for a single chat node. It is
// built per request and holds no state beyond the bound model and the
// pending system-prompt lookup.
type ChatService struct {
	messages MessageRepository
	model    ChatModel
	spec     ModelSpec
	nodeID   int64
	userID   string
	metrics  observability.TurnRecorder
	prompt   *promptLookup
}

// NewChatService resolves the provider for cfg.ModelName and binds a model
// handle to cfg.APIKey. An unknown provider fails here, before any store or
// network access. When cfg.Flavor is set its system prompt is fetched in the
// background and awaited when the first turn assembles its context.
func NewChatService(ctx context.Context, deps ChatDeps, cfg ChatConfig) (*ChatService, error) {
	spec, err := ParseModelName(cfg.ModelName)
	if err != nil {
		return nil, err
	}

	newModel := deps.NewModel
	if newModel == nil {
		newModel = NewChatModel
	}
	model, err := newModel(spec, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopTurnRecorder{}
	}

	s := &ChatService{
		messages: deps.Messages,
		model:    model,
		spec:     spec,
		nodeID:   cfg.NodeID,
		userID:   cfg.UserID,
		metrics:  metrics,
	}
	if cfg.Flavor != "" && deps.Prompts != nil {
		s.prompt = startPromptLookup(ctx, deps.Prompts, cfg.Flavor)
	}
	return s, nil
}

// ProcessMessage runs one turn: persist the user message, load the node's
// history, prepend the system prompt, call the model and persist its reply.
// Concurrent turns on the same node are not coordinated.
func (s *ChatService) ProcessMessage(ctx context.Context, userMessage string) (reply string, err error) {
	start := time.Now()
	ctx, span := observability.StartTurnSpan(ctx, s.nodeID, string(s.spec.Provider), s.spec.Name)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordTurn(ctx, string(s.spec.Provider), time.Since(start), err)
	}()

	// The user's input is durable even if the model call fails.
	userMsg := store.ChatMessage{NodeID: s.nodeID, Content: userMessage, IsUser: true}
	if err := s.messages.CreateMessage(ctx, &userMsg); err != nil {
		return "", err
	}
	observability.AddEvent(ctx, "user_message.persisted")

	rows, err := s.messages.GetMessagesByNodeID(ctx, s.nodeID)
	if err != nil {
		return "", err
	}
	conversation := historyToMessages(rows)

	if prompt, ok := s.prompt.wait(ctx); ok {
		conversation = append([]Message{{Role: RoleSystem, Content: prompt}}, conversation...)
	}
	conversation = ensureTrailingUserTurn(conversation, userMessage)

	reply, err = s.model.Invoke(ctx, conversation)
	if err != nil {
		return "", err
	}
	observability.AddEvent(ctx, "model.replied")

	modelMsg := store.ChatMessage{NodeID: s.nodeID, Content: reply, IsUser: false}
	if err := s.messages.CreateMessage(ctx, &modelMsg); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "chat turn processed",
		"node_id", s.nodeID,
		"user_id", s.userID,
		"model", s.spec.String(),
		"context_messages", len(conversation),
		"duration", time.Since(start),
	)
	return reply, nil
}

// historyToMessages maps stored rows onto role-tagged messages. It depends
// only on its input.
func historyToMessages(rows []store.ChatMessage) []Message {
	messages := make([]Message, 0, len(rows)+2)
	for _, row := range rows {
		role := RoleAssistant
		if row.IsUser {
			role = RoleHuman
		}
		messages = append(messages, Message{Role: role, Content: row.Content})
	}
	return messages
}

// ensureTrailingUserTurn appends the user utterance unless the history
// already ends with it, covering a history read that missed the insert.
func ensureTrailingUserTurn(messages []Message, userMessage string) []Message {
	if n := len(messages); n > 0 {
		last := messages[n-1]
		if last.Role == RoleHuman && last.Content == userMessage {
			return messages
		}
	}
	return append(messages, Message{Role: RoleHuman, Content: userMessage})
}

type promptLookup struct {
	done   chan struct{}
	prompt string
	found  bool
}

func startPromptLookup(ctx context.Context, src SystemPromptSource, flavor string) *promptLookup {
	p := &promptLookup{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.prompt, p.found = src.SystemPrompt(ctx, flavor)
	}()
	return p
}

// wait returns the resolved prompt; a nil lookup or a cancelled context
// means no prompt.
func (p *promptLookup) wait(ctx context.Context) (string, bool) {
	if p == nil {
		return "", false
	}
	select {
	case <-p.done:
		return p.prompt, p.found
	case <-ctx.Done():
		return "", false
	}
}
