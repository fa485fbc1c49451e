package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dataSourceName and creates the schema.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chats (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        seq INTEGER PRIMARY KEY AUTOINCREMENT, -- insertion order
        id TEXT UNIQUE NOT NULL, -- UUID
        chat_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        type TEXT NOT NULL DEFAULT 'text',
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (chat_id) REFERENCES chats (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_chat_seq ON messages (chat_id, seq);
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateChat(ctx context.Context) (*Chat, error) {
	chatID := uuid.NewString()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, "INSERT INTO chats (id, title, created_at) VALUES (?, NULL, ?)", chatID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute chat insert: %w", err)
	}
	return &Chat{ID: chatID, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	var title sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, title, created_at FROM chats WHERE id = ?", chatID).Scan(&chat.ID, &title, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if title.Valid {
		chat.Title = &title.String
	}
	return &chat, nil
}

func (s *SQLiteStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE chats SET title = ? WHERE id = ?", title, chatID)
	if err != nil {
		return fmt.Errorf("failed to execute chat title update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (s *SQLiteStore) chatExists(ctx context.Context, chatID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM chats WHERE id = ?", chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check chat: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	ok, err := s.chatExists(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrChatNotFound
	}

	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO messages (id, chat_id, role, content, type, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ChatID, msg.Role, msg.Content, msg.Type, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	ok, err := s.chatExists(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChatNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, chat_id, role, content, type, timestamp FROM messages WHERE chat_id = ? ORDER BY seq ASC", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.Type, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) ResetChat(ctx context.Context, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE chats SET title = NULL WHERE id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to clear chat title: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrChatNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return tx.Commit()
}
