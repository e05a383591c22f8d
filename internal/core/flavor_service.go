package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
	"riff.app/backend/internal/store"
)

// FlavorService exposes the named system-prompt presets.
type FlavorService struct {
	repo FlavorRepository
}

func NewFlavorService(repo FlavorRepository) *FlavorService {
	return &FlavorService{repo: repo}
}

func (s *FlavorService) List(ctx context.Context) ([]store.Flavor, error) {
	return s.repo.GetFlavors(ctx)
}

// SystemPrompt looks a flavor up by exact name. Lookup failures are logged
// and reported as "no prompt".
func (s *FlavorService) SystemPrompt(ctx context.Context, name string) (string, bool) {
	f, err := s.repo.GetFlavorByName(ctx, name)
	if err != nil {
		slog.WarnContext(ctx, "flavor lookup failed, continuing without system prompt", "flavor", name, "error", err)
		return "", false
	}
	if f == nil {
		slog.WarnContext(ctx, "flavor not found, continuing without system prompt", "flavor", name)
		return "", false
	}
	return f.SystemPrompt, true
}

// FlavorPreset is one entry of a flavor seed file.
type FlavorPreset struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadPresets parses a YAML list of flavor presets.
func LoadPresets(r io.Reader) ([]FlavorPreset, error) {
	var presets []FlavorPreset
	if err := yaml.NewDecoder(r).Decode(&presets); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse flavor presets: %w", err)
	}
	for i, p := range presets {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.SystemPrompt) == "" {
			return nil, fmt.Errorf("flavor preset %d: name and system_prompt are required", i+1)
		}
	}
	return presets, nil
}

// Seed upserts presets by name and returns how many were written.
func (s *FlavorService) Seed(ctx context.Context, presets []FlavorPreset) (int, error) {
	count := 0
	for _, p := range presets {
		f := &store.Flavor{Name: p.Name, SystemPrompt: p.SystemPrompt}
		if err := s.repo.UpsertFlavor(ctx, f); err != nil {
			return count, fmt.Errorf("seed flavor %q: %w", p.Name, err)
		}
		count++
	}
	return count, nil
}
