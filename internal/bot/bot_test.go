package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Token: "not-a-jwt", Client: newFakeClient()})
	assert.Error(t, err, "garbage token must be rejected")

	_, err = New(Config{Token: testToken(t)})
	assert.Error(t, err, "client is required")
}

func TestBotIdentity(t *testing.T) {
	b, _ := newTestBot(t)
	assert.Equal(t, testBotUser, b.UserID())
	assert.Equal(t, testBotOrg, b.OrganizationID())
}

func TestOnIfGatesByConditionals(t *testing.T) {
	b, _ := newTestBot(t)
	var matched, rejected int
	b.OnIf("message.*.contact.*", Conditionals{"@organization": "o1"}, func(*Event) { matched++ })
	b.OnIf("message.*.contact.*", Conditionals{"@organization": "o2"}, func(*Event) { rejected++ })

	b.IngestPayload(chatPayload("c1", "o1", "u1", "plain text"))

	assert.Equal(t, 1, matched)
	assert.Zero(t, rejected)
}

func TestOnceThroughBot(t *testing.T) {
	b, _ := newTestBot(t)
	count := 0
	b.Once("activity", func(*Event) { count++ })

	b.IngestPayload(chatPayload("c1", "", "u1", "one"))
	b.IngestPayload(chatPayload("c1", "", "u1", "two"))

	assert.Equal(t, 1, count)
}

func TestOffThroughBot(t *testing.T) {
	b, _ := newTestBot(t)
	count := 0
	id := b.On("activity", func(*Event) { count++ })

	b.IngestPayload(chatPayload("c1", "", "u1", "one"))
	b.Off(id)
	b.IngestPayload(chatPayload("c1", "", "u1", "two"))

	assert.Equal(t, 1, count)
}

// Exercises concurrent deliveries for one conversation with handlers that
// read and write the shared snapshot's meta, so the race detector covers the
// snapshot lock discipline.
func TestConcurrentIngestSharedConversation(t *testing.T) {
	b, _ := newTestBot(t)

	var handled atomic.Int64
	b.On("message", func(ev *Event) {
		// assert, not require: handlers run on the ingesting goroutines.
		assert.NoError(t, ev.Actions.Set("seen", true))
		handled.Add(1)
	})
	b.OnIf("message", Conditionals{"seen": true}, func(*Event) {})

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				b.IngestPayload(chatPayload("c1", "", "u1", "hello"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), handled.Load())
}

func TestSendFillsBotIdentity(t *testing.T) {
	b, client := newTestBot(t)

	_, err := b.Send(context.Background(), "c1", "hello")
	require.NoError(t, err)

	sent := client.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, testBotUser, sent[0].User)
}
