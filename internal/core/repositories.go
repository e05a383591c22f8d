package core

import (
	"context"

	"riff.app/backend/internal/store"
)

// The repositories below are satisfied by *store.SQLStore.

type ModelRepository interface {
	GetModelsByUserID(ctx context.Context, userID string) ([]store.ModelConfig, error)
	CreateModel(ctx context.Context, m *store.ModelConfig) error
	DeleteModel(ctx context.Context, id int64, userID string) (bool, error)
}

type FlavorRepository interface {
	GetFlavors(ctx context.Context) ([]store.Flavor, error)
	GetFlavorByName(ctx context.Context, name string) (*store.Flavor, error)
	UpsertFlavor(ctx context.Context, f *store.Flavor) error
}

type NodeRepository interface {
	CreateNode(ctx context.Context, n *store.ChatNode) error
	GetNodeByID(ctx context.Context, nodeID int64, userID string) (*store.ChatNode, error)
	GetNodesByUserID(ctx context.Context, userID string, limit int) ([]store.ChatNode, error)
	DeleteNode(ctx context.Context, nodeID int64, userID string) (bool, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *store.ChatMessage) error
	GetMessagesByNodeID(ctx context.Context, nodeID int64) ([]store.ChatMessage, error)
}
