package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visdata-app/visdata/internal/model"
)

func TestAppendAndHistory(t *testing.T) {
	store := NewStore(8, 20, time.Minute)
	require.Nil(t, store.History(1))

	store.Append(1, model.ChatMessage{Role: model.ChatRoleUser, Content: "hello"})
	store.Append(1, model.ChatMessage{Role: model.ChatRoleAssistant, Content: "hi"})
	store.Append(2, model.ChatMessage{Role: model.ChatRoleUser, Content: "other user"})

	history := store.History(1)
	require.Len(t, history, 2)
	require.Equal(t, "hello", history[0].Content)
	require.Equal(t, "hi", history[1].Content)
	require.Len(t, store.History(2), 1)

	// History hands out a copy; mutating it must not touch the session.
	history[0].Content = "mutated"
	require.Equal(t, "hello", store.History(1)[0].Content)
}

func TestHistoryTrimmedToBound(t *testing.T) {
	store := NewStore(8, 3, time.Minute)
	for i := 0; i < 10; i++ {
		store.Append(1, model.ChatMessage{Role: model.ChatRoleUser, Content: string(rune('a' + i))})
	}
	history := store.History(1)
	require.Len(t, history, 3)
	require.Equal(t, "h", history[0].Content)
	require.Equal(t, "j", history[2].Content)
}

func TestSessionExpiry(t *testing.T) {
	store := NewStore(8, 20, 50*time.Millisecond)
	store.Append(1, model.ChatMessage{Role: model.ChatRoleUser, Content: "hello"})
	require.Len(t, store.History(1), 1)

	time.Sleep(120 * time.Millisecond)
	require.Nil(t, store.History(1))
}

func TestSessionCountBound(t *testing.T) {
	store := NewStore(2, 20, time.Minute)
	store.Append(1, model.ChatMessage{Role: model.ChatRoleUser, Content: "a"})
	store.Append(2, model.ChatMessage{Role: model.ChatRoleUser, Content: "b"})
	store.Append(3, model.ChatMessage{Role: model.ChatRoleUser, Content: "c"})
	require.LessOrEqual(t, store.ActiveSessions(), 2)
	require.Nil(t, store.History(1))
}
