package econ

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_WithdrawDeposit(t *testing.T) {
	l := NewMemoryLedger()
	actor := uuid.Must(uuid.NewV7())
	l.SetBalance(actor, 100)

	assert.True(t, l.Has(actor, 100))
	assert.False(t, l.Has(actor, 101))

	resp := l.Withdraw(actor, 40)
	require.True(t, resp.OK)
	assert.Equal(t, 60.0, l.Balance(actor))

	resp = l.Withdraw(actor, 61)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Reason, "insufficient funds")
	assert.Equal(t, 60.0, l.Balance(actor), "failed withdraw must not mutate")

	resp = l.Deposit(actor, 15)
	require.True(t, resp.OK)
	assert.Equal(t, 75.0, l.Balance(actor))
}

func TestMemoryLedger_RejectsNegativeAmounts(t *testing.T) {
	l := NewMemoryLedger()
	actor := uuid.Must(uuid.NewV7())
	assert.False(t, l.Withdraw(actor, -1).OK)
	assert.False(t, l.Deposit(actor, -1).OK)
}

func TestMemoryPresence_DeliverRequiresOnline(t *testing.T) {
	p := NewMemoryPresence()
	actor := uuid.Must(uuid.NewV7())
	p.Join(actor, "Alice", false)

	assert.Error(t, p.Deliver(actor, []string{"hello"}))
	assert.Empty(t, p.Delivered(actor))

	p.SetOnline(actor, true)
	require.NoError(t, p.Deliver(actor, []string{"hello", "again"}))
	assert.Equal(t, []string{"hello", "again"}, p.Delivered(actor))
}

func TestMemoryPresence_NameFallback(t *testing.T) {
	p := NewMemoryPresence()
	assert.Equal(t, "Unknown", p.Name(uuid.Must(uuid.NewV7())))

	actor := uuid.Must(uuid.NewV7())
	p.Join(actor, "Bob", true)
	assert.Equal(t, "Bob", p.Name(actor))
}
