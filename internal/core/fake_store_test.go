package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"riff.app/backend/internal/store"
)

// memStore is an in-memory implementation of every repository interface.
// The err fields inject failures into the matching operation.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	models   []store.ModelConfig
	flavors  []store.Flavor
	nodes    []store.ChatNode
	messages []store.ChatMessage
	calls    int

	createMessageErr   error
	failReplyInsert    error // fails inserts with IsUser == false
	getMessagesErr     error
	getFlavorErr       error
	hideLatestMessages int // simulates a history read that misses recent inserts
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memStore) GetModelsByUserID(_ context.Context, userID string) ([]store.ModelConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]store.ModelConfig, 0)
	for _, mc := range m.models {
		if mc.UserID == userID {
			out = append(out, mc)
		}
	}
	return out, nil
}

func (m *memStore) CreateModel(_ context.Context, mc *store.ModelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	mc.ID = m.id()
	mc.CreatedAt = time.Now().UTC()
	m.models = append(m.models, *mc)
	return nil
}

func (m *memStore) DeleteModel(_ context.Context, id int64, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i, mc := range m.models {
		if mc.ID == id && mc.UserID == userID {
			m.models = append(m.models[:i], m.models[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetFlavors(_ context.Context) ([]store.Flavor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return append([]store.Flavor{}, m.flavors...), nil
}

func (m *memStore) GetFlavorByName(_ context.Context, name string) (*store.Flavor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getFlavorErr != nil {
		return nil, m.getFlavorErr
	}
	for _, f := range m.flavors {
		if f.Name == name {
			f := f
			return &f, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpsertFlavor(_ context.Context, f *store.Flavor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i := range m.flavors {
		if m.flavors[i].Name == f.Name {
			m.flavors[i].SystemPrompt = f.SystemPrompt
			f.ID = m.flavors[i].ID
			return nil
		}
	}
	f.ID = m.id()
	m.flavors = append(m.flavors, *f)
	return nil
}

func (m *memStore) CreateNode(_ context.Context, n *store.ChatNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	n.NodeID = m.id()
	n.CreatedAt = time.Now().UTC()
	m.nodes = append(m.nodes, *n)
	return nil
}

func (m *memStore) GetNodeByID(_ context.Context, nodeID int64, userID string) (*store.ChatNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, n := range m.nodes {
		if n.NodeID == nodeID && n.UserID == userID {
			n := n
			return &n, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetNodesByUserID(_ context.Context, userID string, limit int) ([]store.ChatNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([]store.ChatNode, 0)
	for i := len(m.nodes) - 1; i >= 0; i-- {
		if m.nodes[i].UserID == userID {
			out = append(out, m.nodes[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteNode(_ context.Context, nodeID int64, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i, n := range m.nodes {
		if n.NodeID == nodeID && n.UserID == userID {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			kept := m.messages[:0]
			for _, msg := range m.messages {
				if msg.NodeID != nodeID {
					kept = append(kept, msg)
				}
			}
			m.messages = kept
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateMessage(_ context.Context, msg *store.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.createMessageErr != nil {
		return m.createMessageErr
	}
	if !msg.IsUser && m.failReplyInsert != nil {
		return m.failReplyInsert
	}
	msg.MessageID = m.id()
	msg.Timestamp = time.Now().UTC()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) GetMessagesByNodeID(_ context.Context, nodeID int64) ([]store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getMessagesErr != nil {
		return nil, m.getMessagesErr
	}
	out := make([]store.ChatMessage, 0)
	for _, msg := range m.messages {
		if msg.NodeID == nodeID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	if m.hideLatestMessages > 0 && len(out) >= m.hideLatestMessages {
		out = out[:len(out)-m.hideLatestMessages]
	}
	return out, nil
}

func (m *memStore) nodeMessages(nodeID int64) []store.ChatMessage {
	msgs, _ := m.GetMessagesByNodeID(context.Background(), nodeID)
	return msgs
}
