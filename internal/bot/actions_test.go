package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/botlink/internal/platform"
)

func TestContextForKnownConversation(t *testing.T) {
	b, _ := newTestBot(t)
	b.Store().PutConversation(&platform.Conversation{ID: "c1", Organization: "o1", Status: "open"})
	b.Store().PutOrganization(&platform.Organization{ID: "o1", Name: "Acme"})

	actions := b.Context("c1")

	require.NotNil(t, actions.Conversation)
	assert.Equal(t, "open", actions.Conversation.Status)
	require.NotNil(t, actions.Organization)
	assert.Equal(t, "Acme", actions.Organization.Name)
}

func TestContextFallsBackToEmbeddedOrganizationReference(t *testing.T) {
	b, _ := newTestBot(t)
	b.Store().PutConversation(&platform.Conversation{ID: "c1", Organization: "o9"})

	actions := b.Context("c1")

	require.NotNil(t, actions.Organization)
	assert.Equal(t, "o9", actions.Organization.ID)
	assert.Empty(t, actions.Organization.Name)
}

func TestContextUnknownConversationFailsSoft(t *testing.T) {
	b, _ := newTestBot(t)
	var seen error
	b.OnError(func(err error) { seen = err })

	actions := b.Context("ghost")

	require.NotNil(t, actions)
	assert.Nil(t, actions.Conversation)
	assert.ErrorIs(t, seen, ErrMissingConversation)

	_, err := actions.Say(context.Background(), "hello?")
	assert.ErrorIs(t, err, ErrMissingConversation)
	assert.ErrorIs(t, actions.Set("x", 1), ErrMissingConversation)
	assert.Nil(t, actions.Get("@status"))
}

func TestSayWrapsStringIntoChatMessage(t *testing.T) {
	b, client := newTestBot(t)
	seedConversation(b, "c1")

	_, err := b.Context("c1").Say(context.Background(), "hello")
	require.NoError(t, err)

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", sent[0].Text)
	assert.Equal(t, platform.TypeChat, sent[0].Type)
	assert.Equal(t, testBotUser, sent[0].User)
	assert.Equal(t, platform.RoleBot, sent[0].Role)
	assert.Equal(t, "c1", sent[0].Conversation)
}

func TestCommandHelpers(t *testing.T) {
	b, client := newTestBot(t)
	seedConversation(b, "c1")
	actions := b.Context("c1")
	ctx := context.Background()

	require.NoError(t, actions.Accept(ctx))
	require.NoError(t, actions.Join(ctx))
	require.NoError(t, actions.Leave(ctx))
	require.NoError(t, actions.Assign(ctx, "u1", "u2"))
	require.NoError(t, actions.Notify(ctx, []string{"ch1"}, []string{"o1"}))

	sent := client.sentMessages()
	require.Len(t, sent, 5)
	for _, m := range sent {
		assert.Equal(t, platform.TypeCommand, m.Type)
	}
	assert.Equal(t, "/accept", sent[0].Text)
	assert.Equal(t, "/join", sent[1].Text)
	assert.Equal(t, "/leave", sent[2].Text)
	assert.Equal(t, "/assign u1 u2", sent[3].Text)
	assert.Equal(t, []string{"u1", "u2"}, sent[3].Meta["users"])
	assert.Equal(t, "/notify", sent[4].Text)
	assert.Equal(t, []string{"ch1"}, sent[4].Meta["channels"])
	assert.Equal(t, []string{"o1"}, sent[4].Meta["organizations"])
}

func TestGetSetFieldVersusMeta(t *testing.T) {
	b, _ := newTestBot(t)
	b.Store().PutConversation(&platform.Conversation{ID: "c1", Status: "open"})
	actions := b.Context("c1")

	assert.Equal(t, "open", actions.Get("@status"))
	require.NoError(t, actions.Set("@status", "closed"))
	assert.Equal(t, "closed", actions.Get("@status"))

	assert.Nil(t, actions.Get("mood"))
	require.NoError(t, actions.Set("mood", "happy"))
	assert.Equal(t, "happy", actions.Get("mood"))

	assert.Error(t, actions.Set("@bogus", 1))

	// Writes land on the cached snapshot, the single source of truth.
	cached, _ := b.Store().Conversation("c1")
	assert.Equal(t, "closed", cached.Status)
	assert.Equal(t, "happy", cached.Meta["mood"])
}
