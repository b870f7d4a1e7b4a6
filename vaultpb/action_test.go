package vaultpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionAddPmidCreatesAccount(t *testing.T) {
	var a = ActionAddPmid{Pmid: NodeID{1}, ChunkSize: 256 * 1024}

	var v, err = a.Apply(Value{}, false)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, v.Subscribers)
	assert.Contains(t, v.AllPmids, NodeID{1})
	assert.Contains(t, v.OnlinePmids, NodeID{1})
}

func TestActionRemovePmidMutesOnMissingAccount(t *testing.T) {
	var a = ActionRemovePmid{Pmid: NodeID{1}}
	var _, err = a.Apply(Value{}, false)
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestActionDeleteDecrementsSubscribers(t *testing.T) {
	var v = NewValue()
	v.Subscribers = 2

	var a = ActionDelete{RequestMessageID: 7}
	var out, err = a.Apply(v, true)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, out.Subscribers)
}

func TestActionNodeDownMutesOnAlreadyOffline(t *testing.T) {
	var v = NewValue()
	v.AllPmids[NodeID{1}] = struct{}{}

	var a = ActionNodeDown{Pmid: NodeID{1}}
	var _, err = a.Apply(v, true)
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestActionEqualityIsByFamilyAndParameters(t *testing.T) {
	var a Action[Value] = ActionAddPmid{Pmid: NodeID{1}, ChunkSize: 10}
	var b Action[Value] = ActionAddPmid{Pmid: NodeID{1}, ChunkSize: 10}
	var c Action[Value] = ActionAddPmid{Pmid: NodeID{2}, ChunkSize: 10}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestClassifyAccountErrorMutesIdempotentRaces(t *testing.T) {
	assert.Equal(t, CodeOK, ClassifyAccountError(ErrNoSuchAccount, true, false))
	assert.Equal(t, CodeNotFound, ClassifyAccountError(ErrNoSuchAccount, false, false))
	assert.Equal(t, CodeOK, ClassifyAccountError(ErrNoSuchElement, false, true))
	assert.Equal(t, CodeOK, ClassifyAccountError(nil, false, false))
}
