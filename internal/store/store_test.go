package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func TestStoreAppendPreservesOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			chat, err := s.CreateChat(ctx)
			require.NoError(t, err)

			contents := []string{"first", "second", "third", "fourth"}
			for i, c := range contents {
				role := "user"
				if i%2 == 1 {
					role = "assistant"
				}
				msg := &Message{ChatID: chat.ID, Role: role, Content: c, Type: "text"}
				require.NoError(t, s.AppendMessage(ctx, msg))
				assert.NotEmpty(t, msg.ID)
				assert.False(t, msg.Timestamp.IsZero())
			}

			msgs, err := s.ListMessages(ctx, chat.ID)
			require.NoError(t, err)
			require.Len(t, msgs, len(contents))
			for i, m := range msgs {
				assert.Equal(t, contents[i], m.Content)
				assert.Equal(t, chat.ID, m.ChatID)
			}
			assert.Equal(t, "assistant", msgs[1].Role)
		})
	}
}

func TestStoreChatLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			chat, err := s.CreateChat(ctx)
			require.NoError(t, err)
			assert.Nil(t, chat.Title)

			got, err := s.GetChat(ctx, chat.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, chat.ID, got.ID)

			require.NoError(t, s.UpdateChatTitle(ctx, chat.ID, "Projects"))
			got, err = s.GetChat(ctx, chat.ID)
			require.NoError(t, err)
			require.NotNil(t, got.Title)
			assert.Equal(t, "Projects", *got.Title)

			require.NoError(t, s.AppendMessage(ctx, &Message{ChatID: chat.ID, Role: "user", Content: "hi", Type: "text"}))
			require.NoError(t, s.ResetChat(ctx, chat.ID))

			msgs, err := s.ListMessages(ctx, chat.ID)
			require.NoError(t, err)
			assert.Empty(t, msgs)

			got, err = s.GetChat(ctx, chat.ID)
			require.NoError(t, err)
			assert.Nil(t, got.Title)
		})
	}
}

func TestStoreUnknownChat(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.GetChat(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			err = s.AppendMessage(ctx, &Message{ChatID: "missing", Role: "user", Content: "hi", Type: "text"})
			assert.ErrorIs(t, err, ErrChatNotFound)

			_, err = s.ListMessages(ctx, "missing")
			assert.ErrorIs(t, err, ErrChatNotFound)

			assert.ErrorIs(t, s.ResetChat(ctx, "missing"), ErrChatNotFound)
			assert.ErrorIs(t, s.UpdateChatTitle(ctx, "missing", "x"), ErrChatNotFound)
		})
	}
}

func TestStoreChatsAreIsolated(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, err := s.CreateChat(ctx)
			require.NoError(t, err)
			b, err := s.CreateChat(ctx)
			require.NoError(t, err)

			require.NoError(t, s.AppendMessage(ctx, &Message{ChatID: a.ID, Role: "user", Content: "in a", Type: "text"}))
			require.NoError(t, s.ResetChat(ctx, b.ID))

			msgs, err := s.ListMessages(ctx, a.ID)
			require.NoError(t, err)
			assert.Len(t, msgs, 1)

			msgs, err = s.ListMessages(ctx, b.ID)
			require.NoError(t, err)
			assert.Empty(t, msgs)
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	chat, err := s1.CreateChat(ctx)
	require.NoError(t, err)
	require.NoError(t, s1.AppendMessage(ctx, &Message{ChatID: chat.ID, Role: "user", Content: "hello", Type: "text"}))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	msgs, err := s2.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}
