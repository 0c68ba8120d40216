package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/botlink/internal/platform"
)

const (
	testBotUser = "bot-user-1"
	testBotOrg  = "org-bot"
)

// testToken forges a platform auth token carrying the bot identity claims.
func testToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user":         testBotUser,
		"organization": testBotOrg,
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

type fakeClient struct {
	mu      sync.Mutex
	sent    []*platform.Message
	orgs    map[string]*platform.Organization
	orgErr  error
	sendErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{orgs: make(map[string]*platform.Organization)}
}

func (f *fakeClient) SendMessage(_ context.Context, conversationID string, content any) (*platform.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	msg, err := platform.BuildMessage(content)
	if err != nil {
		return nil, err
	}
	msg.Conversation = conversationID
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("sent-%d", len(f.sent)+1)
	}
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeClient) GetOrganization(_ context.Context, id string) (*platform.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orgErr != nil {
		return nil, f.orgErr
	}
	org, ok := f.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization %s not found", id)
	}
	return org, nil
}

func (f *fakeClient) sentMessages() []*platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*platform.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestBot(t *testing.T, mutate ...func(*Config)) (*Bot, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	cfg := Config{
		Token:             testToken(t),
		Client:            client,
		DisableIgnoreSelf: true,
		DisableIgnoreBots: true,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	if cfg.Client == nil {
		cfg.Client = client
	}
	b, err := New(cfg)
	require.NoError(t, err)
	return b, client
}

func chatPayload(conversationID, organizationID, user, text string) *platform.Payload {
	return &platform.Payload{
		Event: "message.create.contact.chat",
		Data: platform.PayloadData{
			Conversation: &platform.Conversation{ID: conversationID, Organization: organizationID},
			Message: &platform.Message{
				Conversation: conversationID,
				User:         user,
				Role:         platform.RoleContact,
				Type:         platform.TypeChat,
				Text:         text,
			},
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
