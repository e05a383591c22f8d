package core

import (
	"context"

	"riff.app/backend/internal/store"
)

// NodeService manages a user's chat nodes and exposes their history.
type NodeService struct {
	nodes    NodeRepository
	messages MessageRepository
}

func NewNodeService(nodes NodeRepository, messages MessageRepository) *NodeService {
	return &NodeService{nodes: nodes, messages: messages}
}

// Create stores a node. Empty model or flavor names are stored as NULL.
func (s *NodeService) Create(ctx context.Context, userID, title, model, flavor string) (*store.ChatNode, error) {
	n := &store.ChatNode{UserID: userID, Title: title}
	if model != "" {
		n.Model = &model
	}
	if flavor != "" {
		n.Flavor = &flavor
	}
	if err := s.nodes.CreateNode(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NodeService) List(ctx context.Context, userID string) ([]store.ChatNode, error) {
	return s.nodes.GetNodesByUserID(ctx, userID, 0)
}

// Recent returns up to limit nodes, newest first.
func (s *NodeService) Recent(ctx context.Context, userID string, limit int) ([]store.ChatNode, error) {
	return s.nodes.GetNodesByUserID(ctx, userID, limit)
}

func (s *NodeService) Get(ctx context.Context, userID string, nodeID int64) (*store.ChatNode, error) {
	n, err := s.nodes.GetNodeByID(ctx, nodeID, userID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

func (s *NodeService) Delete(ctx context.Context, userID string, nodeID int64) error {
	deleted, err := s.nodes.DeleteNode(ctx, nodeID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNodeNotFound
	}
	return nil
}

// Messages returns the ordered history of one of the caller's nodes.
func (s *NodeService) Messages(ctx context.Context, userID string, nodeID int64) ([]store.ChatMessage, error) {
	if _, err := s.Get(ctx, userID, nodeID); err != nil {
		return nil, err
	}
	return s.messages.GetMessagesByNodeID(ctx, nodeID)
}
