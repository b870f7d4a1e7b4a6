package main

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// loopbackRouter is a single-process stand-in for the overlay routing
// layer, which is out of scope (SPEC_FULL.md §6: "the Router is out of
// scope; only the codes.Code vocabulary is reused"). It hands each
// envelope, on a new goroutine, to the one handler registered for the
// envelope's Receiver.Persona, matching the teacher's own practice of wiring a
// local, in-process dependency in place of an out-of-scope transport
// (mirrors pmidnode.FileChunkStore's "local development" role).
type loopbackRouter struct {
	mu       sync.RWMutex
	handlers map[vaultpb.Persona]func(context.Context, vaultpb.Envelope)
	cache    map[vaultpb.DataName][]byte
}

func newLoopbackRouter() *loopbackRouter {
	return &loopbackRouter{
		handlers: make(map[vaultpb.Persona]func(context.Context, vaultpb.Envelope)),
		cache:    make(map[vaultpb.DataName][]byte),
	}
}

// register wires the persona's inbound demux so Send can deliver to it.
func (r *loopbackRouter) register(persona vaultpb.Persona, handle func(context.Context, vaultpb.Envelope)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[persona] = handle
}

func (r *loopbackRouter) Send(ctx context.Context, env vaultpb.Envelope) error {
	r.mu.RLock()
	var handle, ok = r.handlers[env.Receiver.Persona]
	r.mu.RUnlock()
	if !ok {
		log.WithField("persona", env.Receiver.Persona).Warn("loopback: no handler registered for receiver persona")
		return nil
	}
	go handle(ctx, env)
	return nil
}

func (r *loopbackRouter) NetworkStatus() <-chan int {
	var ch = make(chan int, 1)
	ch <- 100
	return ch
}

func (r *loopbackRouter) MatrixChanges() <-chan vaultpb.MatrixChange {
	return make(chan vaultpb.MatrixChange)
}

func (r *loopbackRouter) GetCacheData(name vaultpb.DataName) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var data, ok = r.cache[name]
	return data, ok
}

func (r *loopbackRouter) PutCacheData(name vaultpb.DataName, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[name] = data
}
