// Package keyedstore implements KeyedDb: a durable, crash-safe ordered map
// from vaultpb.Key to a persona's account value, with deterministic
// Commit(action) semantics and bulk transfer export/import. It is backed
// by RocksDB (github.com/tecbot/gorocksdb), the same on-disk ordered-map
// engine the teacher uses for consumer-local stores in
// consumer/store-rocksdb, satisfying spec.md §6's "durable, crash-safe
// ordered map... e.g. LSM".
package keyedstore

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"
	"sync"

	"github.com/pkg/errors"
	rocks "github.com/tecbot/gorocksdb"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// shardCount stripes per-key write locks so that Commits on unrelated
// keys never contend, while Commits on the same key serialise (spec.md
// §4.1: "must be serialisable with respect to concurrent Commits on the
// same key").
const shardCount = 256

// Entry is a (Key, Value) pair, serialisable atomically -- an AccountEntry
// per spec.md §3.
type Entry[V any] struct {
	Key   vaultpb.Key
	Value V
}

// Merger is implemented by every persona's account Value type, providing
// the family-specific conflict resolution rule HandleTransfer applies on
// bulk upsert.
type Merger[V any] interface {
	Merge(V) V
}

// Store is a generic KeyedDb for value type V.
type Store[V Merger[V]] struct {
	db     *rocks.DB
	ro     *rocks.ReadOptions
	wo     *rocks.WriteOptions
	opts   *rocks.Options
	shards [shardCount]sync.Mutex
}

// Open opens (creating if absent) a RocksDB-backed KeyedDb at dir.
func Open[V Merger[V]](dir string) (*Store[V], error) {
	var opts = rocks.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	var db, err = rocks.OpenDb(opts, dir)
	if err != nil {
		return nil, errors.Wrap(err, "opening KeyedDb")
	}
	return &Store[V]{
		db:   db,
		ro:   rocks.NewDefaultReadOptions(),
		wo:   rocks.NewDefaultWriteOptions(),
		opts: opts,
	}, nil
}

// Close releases the underlying RocksDB handles.
func (s *Store[V]) Close() {
	s.db.Close()
	s.ro.Destroy()
	s.wo.Destroy()
	s.opts.Destroy()
}

func (s *Store[V]) shardFor(key vaultpb.Key) *sync.Mutex {
	var h = fnv.New32a()
	_, _ = h.Write(key.Bytes())
	return &s.shards[h.Sum32()%shardCount]
}

// Commit atomically reads, transforms via action.Apply, and writes back
// key's Value. If key is absent, action must be of a "create" family
// (action.CreatesAccount()) or Commit fails with vaultpb.ErrNoSuchAccount.
// On success it returns the post-state Value so observers can inspect eg
// subscriber counts (spec.md §4.1).
func Commit[A vaultpb.Action[V], V Merger[V]](s *Store[V], key vaultpb.Key, action A) (V, error) {
	var mu = s.shardFor(key)
	mu.Lock()
	defer mu.Unlock()

	var current V
	var exists bool

	var raw, err = s.db.Get(s.ro, key.Bytes())
	if err != nil {
		return current, errors.Wrap(err, "reading KeyedDb")
	}
	defer raw.Free()

	if raw.Size() > 0 {
		if err = gobDecode(raw.Data(), &current); err != nil {
			return current, errors.Wrapf(vaultpb.ErrParsingError, "key %s: %v", key, err)
		}
		exists = true
	} else if !action.CreatesAccount() {
		return current, vaultpb.ErrNoSuchAccount
	}

	var next, applyErr = action.Apply(current, exists)
	if applyErr != nil {
		return next, applyErr
	}

	var encoded []byte
	if encoded, err = gobEncode(next); err != nil {
		return next, errors.Wrap(err, "encoding KeyedDb value")
	}
	if err = s.db.Put(s.wo, key.Bytes(), encoded); err != nil {
		return next, errors.Wrap(err, "writing KeyedDb")
	}
	return next, nil
}

// Get returns the Value stored for key, or vaultpb.ErrNoSuchElement.
func (s *Store[V]) Get(key vaultpb.Key) (V, error) {
	var mu = s.shardFor(key)
	mu.Lock()
	defer mu.Unlock()

	var out V
	var raw, err = s.db.Get(s.ro, key.Bytes())
	if err != nil {
		return out, errors.Wrap(err, "reading KeyedDb")
	}
	defer raw.Free()

	if raw.Size() == 0 {
		return out, vaultpb.ErrNoSuchElement
	}
	if err = gobDecode(raw.Data(), &out); err != nil {
		return out, errors.Wrapf(vaultpb.ErrParsingError, "key %s: %v", key, err)
	}
	return out, nil
}

// Delete removes key outright. No persona calls it: the Commit(ActionDelete)
// path leaves Subscribers==0 records in place, and no account expiry
// exists in this repository.
func (s *Store[V]) Delete(key vaultpb.Key) error {
	var mu = s.shardFor(key)
	mu.Lock()
	defer mu.Unlock()
	return errors.Wrap(s.db.Delete(s.wo, key.Bytes()), "deleting from KeyedDb")
}

// ResponsibleFunc decides, for a given Key under a MatrixChange, which new
// node (if any) is now the primary owner. A false second return means this
// node remains responsible. Determining group ownership is itself a
// routing-layer concern (out of scope per spec.md §1); PersonaService
// supplies this closure from the MatrixChange it was handed.
type ResponsibleFunc func(vaultpb.Key) (vaultpb.NodeID, bool)

// GetTransferInfo partitions current contents by which new node is now
// primary owner, returning the subset to hand off. It never mutates the
// database, using a RocksDB snapshot so that concurrent Commits are
// unaffected (spec.md §4.1).
func (s *Store[V]) GetTransferInfo(responsible ResponsibleFunc) (map[vaultpb.NodeID][]Entry[V], error) {
	var snapshot = s.db.NewSnapshot()
	defer s.db.ReleaseSnapshot(snapshot)

	var ro = rocks.NewDefaultReadOptions()
	ro.SetSnapshot(snapshot)
	defer ro.Destroy()

	var it = s.db.NewIterator(ro)
	defer it.Close()

	var out = make(map[vaultpb.NodeID][]Entry[V])
	for it.SeekToFirst(); it.Valid(); it.Next() {
		var keyBuf = it.Key()
		var key, ok = vaultpb.ParseKey(cloneBytes(keyBuf.Data()))
		keyBuf.Free()
		if !ok {
			continue
		}

		var valBuf = it.Value()
		var value V
		var decodeErr = gobDecode(valBuf.Data(), &value)
		valBuf.Free()
		if decodeErr != nil {
			continue // corrupted record: skip, do not fail the whole transfer
		}

		if node, moved := responsible(key); moved {
			out[node] = append(out[node], Entry[V]{Key: key, Value: value})
		}
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating KeyedDb for transfer")
	}
	return out, nil
}

// HandleTransfer idempotently bulk-upserts entries, merging with any
// existing Value for the same Key via V.Merge. Applying the same batch
// twice yields the same state as applying it once (spec.md §8 invariant
// 5), since Merge is taken to be idempotent for identical inputs.
func (s *Store[V]) HandleTransfer(entries []Entry[V]) error {
	var batch = rocks.NewWriteBatch()
	defer batch.Destroy()

	for _, e := range entries {
		var mu = s.shardFor(e.Key)
		mu.Lock()

		var merged = e.Value
		var raw, err = s.db.Get(s.ro, e.Key.Bytes())
		if err != nil {
			mu.Unlock()
			return errors.Wrap(err, "reading KeyedDb during transfer")
		}
		if raw.Size() > 0 {
			var existing V
			if decErr := gobDecode(raw.Data(), &existing); decErr == nil {
				merged = existing.Merge(e.Value)
			}
		}
		raw.Free()

		var encoded, encErr = gobEncode(merged)
		if encErr != nil {
			mu.Unlock()
			return errors.Wrap(encErr, "encoding transferred value")
		}
		batch.Put(e.Key.Bytes(), encoded)
		mu.Unlock()
	}
	return errors.Wrap(s.db.Write(s.wo, batch), "writing transferred batch")
}

func gobEncode[V any](v V) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode[V any](b []byte, out *V) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(out)
}

func cloneBytes(b []byte) []byte {
	var out = make([]byte, len(b))
	copy(out, b)
	return out
}
