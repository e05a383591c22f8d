package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riff.app/backend/internal/store"
)

const otherUserID = "0c8e4d55-2a7b-4f6e-b1f0-5d2c9e7a3b10"

func TestModelService_AddListDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewModelService(newMemStore())

	added, err := svc.Add(ctx, testUserID, "openai/gpt-4", "sk-a")
	require.NoError(t, err)
	assert.NotZero(t, added.ID)
	assert.Equal(t, testUserID, added.UserID)
	assert.False(t, added.CreatedAt.IsZero())

	_, err = svc.Add(ctx, otherUserID, "anthropic/claude-3", "sk-b")
	require.NoError(t, err)

	mine, err := svc.List(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "openai/gpt-4", mine[0].ModelName)

	// Deleting someone else's configuration is indistinguishable from a missing id.
	theirs, err := svc.List(ctx, otherUserID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, theirs[0].ID), ErrModelNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, 9999), ErrModelNotFound)

	require.NoError(t, svc.Delete(ctx, testUserID, added.ID))
	mine, err = svc.List(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestModelService_FindByNameReturnsFirstMatch(t *testing.T) {
	ctx := context.Background()
	svc := NewModelService(newMemStore())

	first, err := svc.Add(ctx, testUserID, "openai/gpt-4", "sk-first")
	require.NoError(t, err)
	_, err = svc.Add(ctx, testUserID, "openai/gpt-4", "sk-second")
	require.NoError(t, err)

	found, err := svc.FindByName(ctx, testUserID, "openai/gpt-4")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "sk-first", found.APIKey)

	found, err = svc.FindByName(ctx, otherUserID, "openai/gpt-4")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFlavorService_SystemPrompt(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.flavors = []store.Flavor{{ID: 1, Name: "pirate", SystemPrompt: "Talk like a pirate."}}
	svc := NewFlavorService(st)

	prompt, ok := svc.SystemPrompt(ctx, "pirate")
	assert.True(t, ok)
	assert.Equal(t, "Talk like a pirate.", prompt)

	_, ok = svc.SystemPrompt(ctx, "Pirate")
	assert.False(t, ok)

	st.getFlavorErr = errors.New("connection refused")
	_, ok = svc.SystemPrompt(ctx, "pirate")
	assert.False(t, ok)
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets(strings.NewReader(`
- name: pirate
  system_prompt: Talk like a pirate.
- name: haiku
  system_prompt: |
    Answer only in haiku.
`))
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "pirate", presets[0].Name)
	assert.Equal(t, "Answer only in haiku.\n", presets[1].SystemPrompt)

	presets, err = LoadPresets(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, presets)

	_, err = LoadPresets(strings.NewReader("- name: broken\n"))
	assert.ErrorContains(t, err, "flavor preset 1")

	_, err = LoadPresets(strings.NewReader("not: [a, list"))
	assert.ErrorContains(t, err, "parse flavor presets")
}

func TestFlavorService_SeedUpsertsByName(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewFlavorService(st)

	n, err := svc.Seed(ctx, []FlavorPreset{
		{Name: "pirate", SystemPrompt: "v1"},
		{Name: "haiku", SystemPrompt: "Answer in haiku."},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Seed(ctx, []FlavorPreset{{Name: "pirate", SystemPrompt: "v2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	flavors, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, flavors, 2)
	prompt, ok := svc.SystemPrompt(ctx, "pirate")
	require.True(t, ok)
	assert.Equal(t, "v2", prompt)
}

func TestNodeService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := NewNodeService(st, st)

	bare, err := svc.Create(ctx, testUserID, "Untitled", "", "")
	require.NoError(t, err)
	assert.Nil(t, bare.Model)
	assert.Nil(t, bare.Flavor)

	node, err := svc.Create(ctx, testUserID, "Pirate chat", "openai/gpt-4", "pirate")
	require.NoError(t, err)
	require.NotNil(t, node.Model)
	assert.Equal(t, "openai/gpt-4", *node.Model)
	assert.Equal(t, "pirate", *node.Flavor)

	nodes, err := svc.List(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, node.NodeID, nodes[0].NodeID)

	recent, err := svc.Recent(ctx, testUserID, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = svc.Get(ctx, otherUserID, node.NodeID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = svc.Messages(ctx, otherUserID, node.NodeID)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	seedTurn(t, st, node.NodeID, "hi", "ahoy")
	history, err := svc.Messages(ctx, testUserID, node.NodeID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsUser)

	assert.ErrorIs(t, svc.Delete(ctx, otherUserID, node.NodeID), ErrNodeNotFound)
	require.NoError(t, svc.Delete(ctx, testUserID, node.NodeID))
	assert.Empty(t, st.nodeMessages(node.NodeID))
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, node.NodeID), ErrNodeNotFound)
}
