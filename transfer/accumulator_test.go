package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddSettlesAtThreshold(t *testing.T) {
	var acc = New[string, int, string](func(a, b int) bool { return a == b }, func(string) int { return 2 })

	var r = acc.Add("k", 42, "n1")
	assert.Nil(t, r.Settled)

	r = acc.Add("k", 42, "n2")
	assert.NotNil(t, r.Settled)
	assert.Equal(t, 42, *r.Settled)
}

func TestConflictingValuesAreFlagged(t *testing.T) {
	var acc = New[string, int, string](func(a, b int) bool { return a == b }, func(string) int { return 3 })

	acc.Add("k", 1, "n1")
	var r = acc.Add("k", 2, "n2")
	assert.True(t, r.Conflict)
	assert.Nil(t, r.Settled)

	assert.ElementsMatch(t, []string{"k"}, acc.ConflictedKeys())
}

func TestResolveClearsConflict(t *testing.T) {
	var acc = New[string, int, string](func(a, b int) bool { return a == b }, func(string) int { return 99 })
	acc.Add("k", 1, "n1")
	acc.Add("k", 2, "n2")
	assert.NotEmpty(t, acc.ConflictedKeys())

	acc.Resolve("k")
	assert.Empty(t, acc.ConflictedKeys())
}

func TestCheckHandledGuardsEcho(t *testing.T) {
	var acc = New[string, int, string](func(a, b int) bool { return a == b }, func(string) int { return 1 })
	assert.False(t, acc.CheckHandled("self"))

	acc.MarkHandled("self")
	assert.True(t, acc.CheckHandled("self"))

	acc.ResetHandled("self")
	assert.False(t, acc.CheckHandled("self"))
}
