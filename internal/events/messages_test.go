package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEventWire(t *testing.T) {
	ev := NewLedgerEvent(42, TransactionCreated)
	assert.False(t, ev.Timestamp.IsZero())

	data, err := ev.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"userId":42`)
	assert.Contains(t, string(data), `"kind":"transaction.created"`)

	decoded, err := LedgerEventFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.UserID)
	assert.Equal(t, TransactionCreated, decoded.Kind)
}

func TestLedgerEventFromJSONRejectsJunk(t *testing.T) {
	_, err := LedgerEventFromJSON([]byte(`{"userId":`))
	require.Error(t, err)
}
