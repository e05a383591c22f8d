package store

import "time"

type ModelConfig struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ModelName string    `json:"model_name"` // provider-prefixed, e.g. "openai/gpt-4"
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

type Flavor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChatNode struct {
	NodeID    int64     `json:"node_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Model     *string   `json:"model,omitempty"`  // Nullable
	Flavor    *string   `json:"flavor,omitempty"` // Nullable
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	MessageID int64     `json:"message_id"`
	NodeID    int64     `json:"node_id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}
