package main

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// loopbackRouter is a copy of cmd/vaultd's single-process Router stand-in
// (router.Router's concrete transport is out of scope per SPEC_FULL.md
// §6); vault-tool needs its own copy since each cmd/... directory is an
// independent main package. Unlike vaultd's, Send runs the handler
// synchronously and NetworkStatus never reports a reading.
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
	handle(ctx, env)
	return nil
}

func (r *loopbackRouter) NetworkStatus() <-chan int { return make(chan int) }

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
