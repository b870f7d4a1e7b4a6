package synclog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

func fixedQuorum(n int) func(vaultpb.Key) int {
	return func(vaultpb.Key) int { return n }
}

func TestAddUnresolvedActionResolvesAtQuorum(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(3))
	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: vaultpb.Identity{9}}
	var action = vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}, ChunkSize: 100}

	var _, ok = log.AddUnresolvedAction(key, action, vaultpb.NodeID{2})
	assert.False(t, ok)
	_, ok = log.AddUnresolvedAction(key, action, self)
	assert.False(t, ok, "quorum not yet reached")

	var resolved, ok2 = log.AddUnresolvedAction(key, action, vaultpb.NodeID{3})
	assert.True(t, ok2)
	assert.Equal(t, action, resolved)
	assert.Equal(t, 0, log.Len(), "resolved entry is removed")
}

func TestResolutionRequiresSelfContribution(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(2))
	var key = vaultpb.Key{Name: vaultpb.Identity{9}}
	var action = vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}}

	log.AddUnresolvedAction(key, action, vaultpb.NodeID{2})
	_, ok := log.AddUnresolvedAction(key, action, vaultpb.NodeID{3})
	assert.False(t, ok, "must not resolve without self's own observation, for liveness")
}

func TestDistinctActionsOnSameKeyResolveIndependently(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(1))
	var key = vaultpb.Key{Name: vaultpb.Identity{9}}

	log.AddUnresolvedAction(key, vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}}, self)
	log.AddUnresolvedAction(key, vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{6}}, self)

	// Both resolved immediately (quorum 1); Len reflects no leftovers.
	assert.Equal(t, 0, log.Len())
}

func TestGetUnresolvedActionsEnumeratesPending(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(5))
	var key = vaultpb.Key{Name: vaultpb.Identity{9}}
	var action = vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}}

	log.AddUnresolvedAction(key, action, self)
	assert.Len(t, log.GetUnresolvedActions(), 1)
}

func TestIncrementSyncAttempts(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(5))
	var key = vaultpb.Key{Name: vaultpb.Identity{9}}
	var action = vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}}

	log.AddUnresolvedAction(key, action, self)
	assert.Equal(t, 1, log.IncrementSyncAttempts(key, action))
	assert.Equal(t, 2, log.IncrementSyncAttempts(key, action))
}

func TestPruneOlderThan(t *testing.T) {
	var self = vaultpb.NodeID{1}
	var log = New[vaultpb.ActionAddPmid, vaultpb.Value](self, fixedQuorum(5))
	var key = vaultpb.Key{Name: vaultpb.Identity{9}}
	log.AddUnresolvedAction(key, vaultpb.ActionAddPmid{Pmid: vaultpb.NodeID{5}}, self)

	var pruned = log.PruneOlderThan(time.Now().Add(time.Hour))
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 0, log.Len())
}
