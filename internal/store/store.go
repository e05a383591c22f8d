package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore implements every repository the services need on top of
// database/sql. Queries use $N placeholders, which both the pgx and the
// SQLite drivers accept.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	closers []func()
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) Close() error {
	err := s.db.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ModelConfig methods
func (s *SQLStore) GetModelsByUserID(ctx context.Context, userID string) ([]ModelConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, model_name, api_key, created_at FROM user_models WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user models: %w", err)
	}
	defer rows.Close()

	models := make([]ModelConfig, 0)
	for rows.Next() {
		var m ModelConfig
		if err := rows.Scan(&m.ID, &m.UserID, &m.ModelName, &m.APIKey, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user model row: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user models: %w", err)
	}
	return models, nil
}

func (s *SQLStore) CreateModel(ctx context.Context, m *ModelConfig) error {
	m.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_models (user_id, model_name, api_key, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.UserID, m.ModelName, m.APIKey, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user model: %w", err)
	}
	return nil
}

// DeleteModel removes a model configuration owned by userID and reports
// whether a row was deleted.
func (s *SQLStore) DeleteModel(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_models WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user model: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// Flavor methods
func (s *SQLStore) GetFlavors(ctx context.Context) ([]Flavor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, system_prompt, created_at FROM flavors ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flavors: %w", err)
	}
	defer rows.Close()

	flavors := make([]Flavor, 0)
	for rows.Next() {
		var f Flavor
		if err := rows.Scan(&f.ID, &f.Name, &f.SystemPrompt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flavor row: %w", err)
		}
		flavors = append(flavors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flavors: %w", err)
	}
	return flavors, nil
}

func (s *SQLStore) GetFlavorByName(ctx context.Context, name string) (*Flavor, error) {
	var f Flavor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, system_prompt, created_at FROM flavors WHERE name = $1`, name).
		Scan(&f.ID, &f.Name, &f.SystemPrompt, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get flavor: %w", err)
	}
	return &f, nil
}

// UpsertFlavor inserts a flavor or replaces the system prompt of the flavor
// with the same name.
func (s *SQLStore) UpsertFlavor(ctx context.Context, f *Flavor) error {
	f.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO flavors (name, system_prompt, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET system_prompt = excluded.system_prompt
		 RETURNING id`,
		f.Name, f.SystemPrompt, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert flavor: %w", err)
	}
	return nil
}

// ChatNode methods
func (s *SQLStore) CreateNode(ctx context.Context, n *ChatNode) error {
	n.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_nodes (user_id, title, model, flavor, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING node_id`,
		n.UserID, n.Title, n.Model, n.Flavor, n.CreatedAt).Scan(&n.NodeID)
	if err != nil {
		return fmt.Errorf("failed to insert chat node: %w", err)
	}
	return nil
}

// GetNodeByID returns the node only when it belongs to userID; nil when not found.
func (s *SQLStore) GetNodeByID(ctx context.Context, nodeID int64, userID string) (*ChatNode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT node_id, user_id, title, model, flavor, created_at FROM chat_nodes WHERE node_id = $1 AND user_id = $2`,
		nodeID, userID)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat node: %w", err)
	}
	return n, nil
}

// GetNodesByUserID lists a user's nodes, newest first. A limit <= 0 returns all of them.
func (s *SQLStore) GetNodesByUserID(ctx context.Context, userID string, limit int) ([]ChatNode, error) {
	query := `SELECT node_id, user_id, title, model, flavor, created_at FROM chat_nodes
		WHERE user_id = $1 ORDER BY created_at DESC, node_id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]ChatNode, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat node row: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat nodes: %w", err)
	}
	return nodes, nil
}

func (s *SQLStore) DeleteNode(ctx context.Context, nodeID int64, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_nodes WHERE node_id = $1 AND user_id = $2`, nodeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete chat node: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(r rowScanner) (*ChatNode, error) {
	var n ChatNode
	var model, flavor sql.NullString
	if err := r.Scan(&n.NodeID, &n.UserID, &n.Title, &model, &flavor, &n.CreatedAt); err != nil {
		return nil, err
	}
	if model.Valid {
		n.Model = &model.String
	}
	if flavor.Valid {
		n.Flavor = &flavor.String
	}
	return &n, nil
}

// ChatMessage methods
func (s *SQLStore) CreateMessage(ctx context.Context, msg *ChatMessage) error {
	msg.Timestamp = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (node_id, content, is_user, timestamp) VALUES ($1, $2, $3, $4) RETURNING message_id`,
		msg.NodeID, msg.Content, msg.IsUser, msg.Timestamp).Scan(&msg.MessageID)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// GetMessagesByNodeID returns the full history of a node, oldest first.
func (s *SQLStore) GetMessagesByNodeID(ctx context.Context, nodeID int64) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, node_id, content, is_user, timestamp FROM chat_messages
		 WHERE node_id = $1 ORDER BY timestamp ASC, message_id ASC`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.MessageID, &m.NodeID, &m.Content, &m.IsUser, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}
	return messages, nil
}
