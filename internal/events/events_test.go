package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flash-wallet/flash_ledger/internal/money"
)

func TestEntryPostedWireFormat(t *testing.T) {
	event := EntryPosted{
		EntryID:         "01J0000000000000000000000",
		TransactionType: "topup",
		WalletIDs:       []string{"w1"},
		Lines: []PostedLine{{
			Account:   "Ibex:w1",
			Direction: "credit",
			Amount:    money.FromMinorInt[money.JMD](150000).Money(),
		}},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":["150000","JMD"]`)
	assert.Contains(t, string(raw), `"created_at":"2024-05-01T12:00:00Z"`)
}

func TestMemoryPublisherKeepsOrder(t *testing.T) {
	p := &MemoryPublisher{}
	for _, id := range []string{"a", "b"} {
		require.NoError(t, p.PublishEntryPosted(context.Background(), EntryPosted{EntryID: id}))
	}
	got := p.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].EntryID)
	assert.Equal(t, "b", got[1].EntryID)
}

func TestKafkaPublisherDefaultsTopic(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "")
	t.Cleanup(func() { p.Close() })
	assert.Equal(t, TopicEntryPosted, p.writer.Topic)
}
