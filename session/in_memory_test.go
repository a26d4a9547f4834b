package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.State)
}

func TestInMemoryStore_ApplyDeltaVisibleOnNextGet(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Create("s1")
	require.NoError(t, err)

	require.NoError(t, store.ApplyDelta("s1", map[string]any{
		"current_corpus":            "notes",
		"corpus_exists_notes":       true,
		"corpus_exists_engineering": false,
	}))

	sess, err := store.Get("s1")
	require.NoError(t, err)

	v, ok := sess.GetState("current_corpus")
	require.True(t, ok)
	assert.Equal(t, "notes", v)

	v, ok = sess.GetState("corpus_exists_notes")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestInMemoryStore_AppendHistoryOrdered(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendHistory("s1", core.NewUserMessage("create a corpus")))
	require.NoError(t, store.AppendHistory("s1", core.NewAssistantMessage("done")))

	sess, err := store.Get("s1")
	require.NoError(t, err)

	history := sess.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()

	first, err := store.Get("s1")
	require.NoError(t, err)
	first.SetState("current_corpus", "mutated-locally")

	second, err := store.Get("s1")
	require.NoError(t, err)
	_, ok := second.GetState("current_corpus")
	assert.False(t, ok, "mutating a returned session must not leak into the store")
}

func TestInMemoryStore_CreateOverwrites(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.ApplyDelta("s1", map[string]any{"current_corpus": "notes"}))

	_, err := store.Create("s1")
	require.NoError(t, err)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	_, ok := sess.GetState("current_corpus")
	assert.False(t, ok)
}
