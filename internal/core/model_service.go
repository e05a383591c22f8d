package core

import (
	"context"

	"riff.app/backend/internal/store"
)

// ModelService manages the model credentials a user has configured.
type ModelService struct {
	repo ModelRepository
}

func NewModelService(repo ModelRepository) *ModelService {
	return &ModelService{repo: repo}
}

func (s *ModelService) List(ctx context.Context, userID string) ([]store.ModelConfig, error) {
	return s.repo.GetModelsByUserID(ctx, userID)
}

// Add stores a new configuration. Field presence is validated by the caller.
func (s *ModelService) Add(ctx context.Context, userID, modelName, apiKey string) (*store.ModelConfig, error) {
	m := &store.ModelConfig{UserID: userID, ModelName: modelName, APIKey: apiKey}
	if err := s.repo.CreateModel(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes one of the caller's configurations. Ids owned by someone
// else are reported as ErrModelNotFound.
func (s *ModelService) Delete(ctx context.Context, userID string, modelID int64) error {
	deleted, err := s.repo.DeleteModel(ctx, modelID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrModelNotFound
	}
	return nil
}

// FindByName returns the caller's first configuration for modelName, or nil.
func (s *ModelService) FindByName(ctx context.Context, userID, modelName string) (*store.ModelConfig, error) {
	models, err := s.repo.GetModelsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ModelName == modelName {
			return &models[i], nil
		}
	}
	return nil, nil
}
