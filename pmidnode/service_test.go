package pmidnode

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

type memChunkStore struct {
	mu    sync.Mutex
	chunks map[vaultpb.Identity][]byte
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: make(map[vaultpb.Identity][]byte)}
}
func (m *memChunkStore) Get(name vaultpb.Identity) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.chunks[name]
	return data, ok, nil
}
func (m *memChunkStore) Put(name vaultpb.Identity, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[name] = data
	return nil
}
func (m *memChunkStore) Delete(name vaultpb.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, name)
	return nil
}

type fakeRouter struct {
	mu   sync.Mutex
	sent []vaultpb.Envelope
}

func (f *fakeRouter) Send(_ context.Context, env vaultpb.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}
func (f *fakeRouter) NetworkStatus() <-chan int                    { return nil }
func (f *fakeRouter) MatrixChanges() <-chan vaultpb.MatrixChange   { return nil }
func (f *fakeRouter) GetCacheData(vaultpb.DataName) ([]byte, bool) { return nil, false }
func (f *fakeRouter) PutCacheData(vaultpb.DataName, []byte)       {}
func (f *fakeRouter) last() vaultpb.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}
func (f *fakeRouter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	var r = &fakeRouter{}
	var self = vaultpb.NodeID{1}
	var disp = dispatch.New(r, self, vaultpb.PersonaPmidNode)
	var svc = New(self, disp, newMemChunkStore())

	var key = vaultpb.Key{Name: vaultpb.Identity{7}}
	var env = vaultpb.Envelope{MessageID: 1, Sender: vaultpb.Sender{Node: vaultpb.NodeID{2}, Group: vaultpb.GroupID(key.Name), IsGroup: true}}
	svc.HandlePutChunk(context.Background(), env, key, []byte("payload"))

	require.Equal(t, 1, r.count())
	assert.Equal(t, vaultpb.MsgChunkStored, r.last().Type)

	var getEnv = vaultpb.Envelope{MessageID: 2, Sender: vaultpb.Sender{Node: vaultpb.NodeID{3}}, Payload: vaultpb.GetRequestPayload{Key: key}}
	svc.HandleGetRequest(context.Background(), getEnv)

	require.Equal(t, 2, r.count())
	var reply = r.last().Payload.(vaultpb.GetResponsePayload)
	assert.Equal(t, []byte("payload"), reply.Data)
}

func TestGetRequestMissingChunkSendsNoReply(t *testing.T) {
	var r = &fakeRouter{}
	var self = vaultpb.NodeID{1}
	var disp = dispatch.New(r, self, vaultpb.PersonaPmidNode)
	var svc = New(self, disp, newMemChunkStore())

	var env = vaultpb.Envelope{MessageID: 1, Payload: vaultpb.GetRequestPayload{Key: vaultpb.Key{Name: vaultpb.Identity{9}}}}
	svc.HandleGetRequest(context.Background(), env)
	assert.Equal(t, 0, r.count())
}
