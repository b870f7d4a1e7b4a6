package accumulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

func quorumOf(n int) Predicate {
	return func(observedBy map[vaultpb.NodeID]struct{}, _ interface{}) bool {
		return len(observedBy) >= n
	}
}

func TestAddSatisfiesAtQuorum(t *testing.T) {
	var a = New(16)
	var key = EntryKey{MessageID: 1}

	assert.Equal(t, Waiting, a.Add(key, vaultpb.NodeID{1}, "payload", quorumOf(3)))
	assert.Equal(t, Waiting, a.Add(key, vaultpb.NodeID{2}, "payload", quorumOf(3)))
	assert.Equal(t, Satisfied, a.Add(key, vaultpb.NodeID{3}, "payload", quorumOf(3)))
}

func TestSatisfiedAtMostOnce(t *testing.T) {
	var a = New(16)
	var key = EntryKey{MessageID: 1}

	for _, n := range []vaultpb.NodeID{{1}, {2}, {3}} {
		a.Add(key, n, "payload", quorumOf(3))
	}
	// A further, distinct sender after satisfaction must report Duplicate,
	// never a second Satisfied (spec.md §8 invariant 4).
	assert.Equal(t, Duplicate, a.Add(key, vaultpb.NodeID{4}, "payload", quorumOf(3)))
}

func TestDuplicateSenderDoesNotDoubleCount(t *testing.T) {
	var a = New(16)
	var key = EntryKey{MessageID: 1}

	assert.Equal(t, Waiting, a.Add(key, vaultpb.NodeID{1}, "payload", quorumOf(2)))
	assert.Equal(t, Waiting, a.Add(key, vaultpb.NodeID{1}, "payload", quorumOf(2)))
	assert.Equal(t, Satisfied, a.Add(key, vaultpb.NodeID{2}, "payload", quorumOf(2)))
}

func TestCachedReplyRoundTrip(t *testing.T) {
	var a = New(16)
	var key = EntryKey{MessageID: 1}

	a.Add(key, vaultpb.NodeID{1}, "payload", quorumOf(1))
	a.SetCachedReply(key, "the reply")

	var reply, ok = a.CachedReply(key)
	assert.True(t, ok)
	assert.Equal(t, "the reply", reply)
}

func TestEvictionIsLRU(t *testing.T) {
	var a = New(2)

	a.Add(EntryKey{MessageID: 1}, vaultpb.NodeID{1}, nil, quorumOf(99))
	a.Add(EntryKey{MessageID: 2}, vaultpb.NodeID{1}, nil, quorumOf(99))
	assert.Equal(t, 2, a.Len())

	// Touch entry 1 so entry 2 becomes least-recently-used.
	a.Add(EntryKey{MessageID: 1}, vaultpb.NodeID{2}, nil, quorumOf(99))
	a.Add(EntryKey{MessageID: 3}, vaultpb.NodeID{1}, nil, quorumOf(99))

	assert.Equal(t, 2, a.Len())
	var _, ok = a.entries[EntryKey{MessageID: 2}]
	assert.False(t, ok, "least-recently-touched entry should have been evicted")
}
