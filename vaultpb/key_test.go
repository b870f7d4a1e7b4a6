package vaultpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBytesRoundTrip(t *testing.T) {
	var k = Key{Tag: TagMutableData, Name: Identity{1, 2, 3, 4}}

	var parsed, ok = ParseKey(k.Bytes())
	assert.True(t, ok)
	assert.Equal(t, k, parsed)
}

func TestKeyOrdering(t *testing.T) {
	var a = Key{Tag: TagImmutableChunk, Name: Identity{1}}
	var b = Key{Tag: TagImmutableChunk, Name: Identity{2}}
	var c = Key{Tag: TagMutableData, Name: Identity{1}}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	// Same Name, differing Tag is the tie-break.
	assert.Equal(t, -1, a.Compare(c))
}

func TestParseKeyRejectsWrongLength(t *testing.T) {
	var _, ok = ParseKey([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestVariantTableDispatch(t *testing.T) {
	var table = VariantTable[string]{
		TagImmutableChunk: "chunk-handler",
	}
	var h, ok = table.Dispatch(FromName(Key{Tag: TagImmutableChunk}))
	assert.True(t, ok)
	assert.Equal(t, "chunk-handler", h)

	_, ok = table.Dispatch(FromName(Key{Tag: TagDirectory}))
	assert.False(t, ok)
}
