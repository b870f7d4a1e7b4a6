package accumulator

import (
	"testing"

	gc "github.com/go-check/check"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

func Test(t *testing.T) { gc.TestingT(t) }

type AccumulatorSuite struct{}

var _ = gc.Suite(&AccumulatorSuite{})

func (s *AccumulatorSuite) TestDuplicateAfterSatisfactionReplaysCachedReply(c *gc.C) {
	var a = New(0)
	var key = EntryKey{MessageID: 1, Group: vaultpb.GroupID{1}}

	a.Add(key, vaultpb.NodeID{1}, "payload", quorumOf(2))
	var r = a.Add(key, vaultpb.NodeID{2}, "payload", quorumOf(2))
	c.Assert(r, gc.Equals, Satisfied)

	a.SetCachedReply(key, "the-reply")

	r = a.Add(key, vaultpb.NodeID{3}, "payload", quorumOf(2))
	c.Check(r, gc.Equals, Duplicate)

	var reply, ok = a.CachedReply(key)
	c.Assert(ok, gc.Equals, true)
	c.Check(reply, gc.Equals, "the-reply")
}

func (s *AccumulatorSuite) TestSameMessageIDDifferentGroupsAreIndependent(c *gc.C) {
	var a = New(0)
	var keyA = EntryKey{MessageID: 7, Group: vaultpb.GroupID{1}}
	var keyB = EntryKey{MessageID: 7, Group: vaultpb.GroupID{2}}

	var r = a.Add(keyA, vaultpb.NodeID{1}, nil, quorumOf(2))
	c.Check(r, gc.Equals, Waiting)

	// The same MessageID under a distinct Group must accumulate separately.
	r = a.Add(keyB, vaultpb.NodeID{1}, nil, quorumOf(1))
	c.Check(r, gc.Equals, Satisfied)

	c.Check(a.Len(), gc.Equals, 2)
}

func (s *AccumulatorSuite) TestSetCachedReplyAfterEvictionIsNoOp(c *gc.C) {
	var a = New(1)
	var key = EntryKey{MessageID: 1}

	a.Add(key, vaultpb.NodeID{1}, nil, quorumOf(99))
	a.Add(EntryKey{MessageID: 2}, vaultpb.NodeID{1}, nil, quorumOf(99)) // evicts key

	a.SetCachedReply(key, "too-late")
	var _, ok = a.CachedReply(key)
	c.Check(ok, gc.Equals, false)
}
